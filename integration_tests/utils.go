package integrationtests

import (
	"log/slog"
	"meritboard/client"
	"os"
	"testing"

	"github.com/google/uuid"
)

// These tests run against a live server. Set MERITBOARD_API to the server
// url (and MERITBOARD_ADMIN_EMAIL / MERITBOARD_ADMIN_PASSWORD for the admin
// login) to enable them.

func adminClient(t *testing.T) *client.MeritboardClient {
	baseUrl := os.Getenv("MERITBOARD_API")
	if baseUrl == "" {
		t.Skip("MERITBOARD_API not set, skipping integration test")
	}

	slog.SetLogLoggerLevel(slog.LevelDebug)

	c := client.New(baseUrl)

	email := os.Getenv("MERITBOARD_ADMIN_EMAIL")
	password := os.Getenv("MERITBOARD_ADMIN_PASSWORD")
	if err := c.Login(email, password); err != nil {
		t.Fatal(err)
	}
	return c
}

func newUserClient(t *testing.T, admin *client.MeritboardClient, name string) *client.MeritboardClient {
	c := client.New(os.Getenv("MERITBOARD_API"))

	email := name + "@mail.com"
	password := name + "_password"

	if err := c.Signup(name, "tester", email, password); err != nil {
		t.Fatal(err)
	}
	if err := c.Login(email, password); err != nil {
		t.Fatal(err)
	}

	userId := c.UserId()
	t.Cleanup(func() {
		if err := admin.DeleteUser(userId); err != nil {
			t.Logf("cleanup: error deleting user %v: %v", userId, err)
		}
	})

	return c
}

func randomName(base string) string {
	return base + "-" + uuid.New().String()
}
