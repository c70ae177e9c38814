package tests

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestSubmitRating(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	fixture, err := setupCatalog(&admin)
	if err != nil {
		t.Fatal(err)
	}

	user, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}

	entry, err := user.submitRating(submitRatingArgs{
		EventId:       fixture.event.Id,
		CriteriaId:    fixture.criteria.Id,
		SubCriteriaId: fixture.subCriteria.Id,
		RatingId:      fixture.ratings[2].Id,
	})
	if err != nil {
		t.Fatal(err)
	}

	if entry.Event.Id != fixture.event.Id || entry.Event.Name != "spring review" {
		t.Fatalf("bad event in projection: %v", entry.Event)
	}
	if entry.Criteria.Id != fixture.criteria.Id || entry.SubCriteria.Id != fixture.subCriteria.Id {
		t.Fatalf("bad criteria in projection: %v", entry)
	}
	if entry.Rating.Name != "good" || entry.Rating.Value != 3 {
		t.Fatalf("bad rating in projection: %v", entry.Rating)
	}
	if entry.User.Id.String() != user.userId {
		t.Fatalf("bad user in projection: %v", entry.User)
	}

	// Resubmitting for the same sub-criterion replaces the rating instead
	// of creating a second entry.
	resubmitted, err := user.submitRating(submitRatingArgs{
		EventId:       fixture.event.Id,
		CriteriaId:    fixture.criteria.Id,
		SubCriteriaId: fixture.subCriteria.Id,
		RatingId:      fixture.ratings[3].Id,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resubmitted.Id != entry.Id {
		t.Fatal("resubmit should update the existing entry")
	}
	if resubmitted.Rating.Name != "excellent" {
		t.Fatalf("resubmit should replace the rating, got %v", resubmitted.Rating)
	}

	entries, err := user.listRatings("")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single entry after resubmit, got %v", entries)
	}
}

func TestSubmitRatingValidation(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	fixture, err := setupCatalog(&admin)
	if err != nil {
		t.Fatal(err)
	}

	otherCriteria, err := admin.createCriteria("leadership")
	if err != nil {
		t.Fatal(err)
	}

	user, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}

	args := submitRatingArgs{
		EventId:       fixture.event.Id,
		CriteriaId:    fixture.criteria.Id,
		SubCriteriaId: fixture.subCriteria.Id,
		RatingId:      fixture.ratings[0].Id,
	}

	bad := args
	bad.EventId = uuid.New()
	if _, err := user.submitRating(bad); statusCode(err) != http.StatusNotFound {
		t.Fatalf("unknown event should be not found, got %v", err)
	}

	bad = args
	bad.RatingId = uuid.New()
	if _, err := user.submitRating(bad); statusCode(err) != http.StatusNotFound {
		t.Fatalf("unknown rating should be not found, got %v", err)
	}

	bad = args
	bad.CriteriaId = otherCriteria.Id
	if _, err := user.submitRating(bad); statusCode(err) != http.StatusBadRequest {
		t.Fatalf("sub-criteria from another criteria should be rejected, got %v", err)
	}

	// No entry should exist after the rejected submissions.
	entries, err := user.listRatings("")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %v", entries)
	}
}

func TestListRatingsFilters(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	fixture, err := setupCatalog(&admin)
	if err != nil {
		t.Fatal(err)
	}

	otherEvent, err := admin.createEvent("fall review")
	if err != nil {
		t.Fatal(err)
	}

	user1, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}
	user2, err := env.newUser("xyz")
	if err != nil {
		t.Fatal(err)
	}

	for _, c := range []struct {
		user  *client
		event uuid.UUID
	}{
		{&user1, fixture.event.Id},
		{&user1, otherEvent.Id},
		{&user2, fixture.event.Id},
	} {
		_, err := c.user.submitRating(submitRatingArgs{
			EventId:       c.event,
			CriteriaId:    fixture.criteria.Id,
			SubCriteriaId: fixture.subCriteria.Id,
			RatingId:      fixture.ratings[1].Id,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	all, err := admin.listRatings("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %v", len(all))
	}

	byEvent, err := admin.listRatings("event_id=" + fixture.event.Id.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(byEvent) != 2 {
		t.Fatalf("expected 2 entries for event, got %v", len(byEvent))
	}

	byUser, err := admin.listRatings("user_id=" + user1.userId)
	if err != nil {
		t.Fatal(err)
	}
	if len(byUser) != 2 {
		t.Fatalf("expected 2 entries for user, got %v", len(byUser))
	}

	both, err := admin.listRatings("event_id=" + otherEvent.Id.String() + "&user_id=" + user2.userId)
	if err != nil {
		t.Fatal(err)
	}
	if len(both) != 0 {
		t.Fatalf("expected no matches, got %v", both)
	}

	if _, err := admin.listRatings("event_id=notauuid"); statusCode(err) != http.StatusBadRequest {
		t.Fatalf("bad filter should be rejected, got %v", err)
	}
}

func TestDeleteRatingEntry(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	fixture, err := setupCatalog(&admin)
	if err != nil {
		t.Fatal(err)
	}

	owner, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}
	other, err := env.newUser("xyz")
	if err != nil {
		t.Fatal(err)
	}

	submit := func(c *client) uuid.UUID {
		entry, err := c.submitRating(submitRatingArgs{
			EventId:       fixture.event.Id,
			CriteriaId:    fixture.criteria.Id,
			SubCriteriaId: fixture.subCriteria.Id,
			RatingId:      fixture.ratings[0].Id,
		})
		if err != nil {
			t.Fatal(err)
		}
		return entry.Id
	}

	entryId := submit(&owner)

	if err := other.deleteRating(entryId); statusCode(err) != http.StatusForbidden {
		t.Fatalf("non-owner delete should be forbidden, got %v", err)
	}

	if _, err := other.getRating(entryId); err != nil {
		t.Fatalf("entry should survive the rejected delete: %v", err)
	}

	if err := owner.deleteRating(entryId); err != nil {
		t.Fatal(err)
	}
	if _, err := owner.getRating(entryId); statusCode(err) != http.StatusNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	// Admins can remove anyone's entries.
	entryId = submit(&owner)
	if err := admin.deleteRating(entryId); err != nil {
		t.Fatal(err)
	}

	if err := admin.deleteRating(uuid.New()); statusCode(err) != http.StatusNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCatalogDeleteCascadesIntoEntries(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	fixture, err := setupCatalog(&admin)
	if err != nil {
		t.Fatal(err)
	}

	user, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}

	_, err = user.submitRating(submitRatingArgs{
		EventId:       fixture.event.Id,
		CriteriaId:    fixture.criteria.Id,
		SubCriteriaId: fixture.subCriteria.Id,
		RatingId:      fixture.ratings[0].Id,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.deleteEvent(fixture.event.Id); err != nil {
		t.Fatal(err)
	}

	entries, err := admin.listRatings("")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("event delete should remove its entries, got %v", entries)
	}
}
