package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signupMetric       = promauto.NewSummary(prometheus.SummaryOpts{Name: "meritboard_signup", Help: "User signups"})
	loginMetric        = promauto.NewSummary(prometheus.SummaryOpts{Name: "meritboard_login", Help: "User logins"})
	avatarUploadMetric = promauto.NewSummary(prometheus.SummaryOpts{Name: "meritboard_avatar_upload", Help: "Avatar uploads"})
	ratingSubmitMetric = promauto.NewSummary(prometheus.SummaryOpts{Name: "meritboard_rating_submit", Help: "Rating submissions"})
	ratingListMetric   = promauto.NewSummary(prometheus.SummaryOpts{Name: "meritboard_rating_list", Help: "Rating list queries"})
)
