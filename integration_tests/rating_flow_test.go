package integrationtests

import (
	"meritboard/client"
	"testing"
)

func TestRatingFlow(t *testing.T) {
	admin := adminClient(t)

	if err := admin.Health(); err != nil {
		t.Fatal(err)
	}

	event, err := admin.CreateEvent(randomName("review"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := admin.DeleteEvent(event.Id); err != nil {
			t.Logf("cleanup: error deleting event: %v", err)
		}
	})

	criteria, err := admin.CreateCriteria(randomName("teamwork"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := admin.DeleteCriteria(criteria.Id); err != nil {
			t.Logf("cleanup: error deleting criteria: %v", err)
		}
	})

	sub, err := admin.CreateSubCriteria(randomName("communication"), criteria.Id)
	if err != nil {
		t.Fatal(err)
	}

	rating, err := admin.CreateRatingValue(randomName("good"), 4)
	if err != nil {
		t.Fatal(err)
	}

	user := newUserClient(t, admin, randomName("user"))

	entry, err := user.SubmitRating(client.SubmitRatingArgs{
		EventId:       event.Id,
		CriteriaId:    criteria.Id,
		SubCriteriaId: sub.Id,
		RatingId:      rating.Id,
	})
	if err != nil {
		t.Fatal(err)
	}

	if entry.Event.Id != event.Id || entry.Rating.Id != rating.Id || entry.User.Id.String() != user.UserId() {
		t.Fatalf("unexpected entry projection %v", entry)
	}

	entries, err := user.ListRatings(event.Id.String(), user.UserId())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Id != entry.Id {
		t.Fatalf("unexpected entries %v", entries)
	}

	if err := user.DeleteRating(entry.Id); err != nil {
		t.Fatal(err)
	}

	entries, err = user.ListRatings(event.Id.String(), user.UserId())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("entry should be gone, got %v", entries)
	}
}

func TestSalaryAndAvatarFlow(t *testing.T) {
	admin := adminClient(t)

	user := newUserClient(t, admin, randomName("user"))

	if _, err := user.ChangeSalary(user.UserId(), 75000); err == nil {
		t.Fatal("non-admin salary change should fail")
	}

	info, err := admin.ChangeSalary(user.UserId(), 75000)
	if err != nil {
		t.Fatal(err)
	}
	if info.Salary != 75000 {
		t.Fatalf("expected salary 75000, got %d", info.Salary)
	}
}
