package tests

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"meritboard/backend/schema"

	"github.com/google/uuid"
)

func TestSignupAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	for i := 0; i < 5; i++ {
		firstName := fmt.Sprintf("user%d", i)
		email := fmt.Sprintf("user%d@mail.com", i)
		password := fmt.Sprintf("user%d_password", i)

		client := env.newClient()
		login, err := client.signup(firstName, "tester", email, password)
		if err != nil {
			t.Fatal(err)
		}

		_, err = client.signup(firstName, "tester", email, password)
		if statusCode(err) != http.StatusConflict {
			t.Fatalf("duplicate signup should fail with conflict, got %v", err)
		}

		err = client.login(loginInfo{Email: "user@mail.com", Password: password})
		if err == nil {
			t.Fatal("login should fail with wrong email")
		}

		err = client.login(loginInfo{Email: email, Password: "password"})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("login should fail with wrong password, got %v", err)
		}

		err = client.login(login)
		if err != nil {
			t.Fatal(err)
		}

		info, err := client.userInfo()
		if err != nil {
			t.Fatal(err)
		}

		if info.FirstName != firstName || info.Email != email || info.Id.String() != client.userId || info.Admin {
			t.Fatalf("invalid info %v", info)
		}
		if info.Salary != schema.DefaultSalary {
			t.Fatalf("new user should get default salary, got %d", info.Salary)
		}
		if info.Avatar != schema.DefaultAvatarUrl {
			t.Fatalf("new user should get default avatar, got %v", info.Avatar)
		}
	}
}

func TestSignupRequiresEmailAndPassword(t *testing.T) {
	env := setupTestEnv(t)

	client := env.newClient()

	_, err := client.signup("abc", "tester", "", "password")
	if statusCode(err) != http.StatusBadRequest {
		t.Fatalf("signup without email should fail, got %v", err)
	}

	_, err = client.signup("abc", "tester", "abc@mail.com", "")
	if statusCode(err) != http.StatusBadRequest {
		t.Fatalf("signup without password should fail, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	users, err := admin.listUsers()
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].Email != adminEmail {
		t.Fatalf("expected only the admin, got %v", users)
	}

	if _, err := env.newUser("xyz"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.newUser("abc"); err != nil {
		t.Fatal(err)
	}

	client := env.newClient()
	_, err = client.listUsers()
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("list should require auth, got %v", err)
	}

	users, err = admin.listUsers()
	if err != nil {
		t.Fatal(err)
	}

	emails := make([]string, 0, len(users))
	for _, u := range users {
		emails = append(emails, u.Email)
	}
	expected := []string{"abc@mail.com", adminEmail, "xyz@mail.com"}
	if len(emails) != len(expected) {
		t.Fatalf("expected %v users, got %v", len(expected), emails)
	}
	for i, email := range expected {
		if emails[i] != email {
			t.Fatalf("users should be ordered by email, got %v", emails)
		}
	}
}

func TestGetAndUpdateUser(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}

	// Reads and name updates are open endpoints.
	anon := env.newClient()

	info, err := anon.getUser(user.userId)
	if err != nil {
		t.Fatal(err)
	}
	if info.FirstName != "abc" || info.Email != "abc@mail.com" {
		t.Fatalf("invalid user info %v", info)
	}

	_, err = anon.getUser(uuid.NewString())
	if statusCode(err) != http.StatusNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	updated, err := anon.updateUser(user.userId, "alice", "baker")
	if err != nil {
		t.Fatal(err)
	}
	if updated.FirstName != "alice" || updated.LastName != "baker" {
		t.Fatalf("update did not apply: %v", updated)
	}

	info, err = anon.getUser(user.userId)
	if err != nil {
		t.Fatal(err)
	}
	if info.FirstName != "alice" || info.LastName != "baker" {
		t.Fatalf("update did not persist: %v", info)
	}

	_, err = anon.updateUser(uuid.NewString(), "x", "y")
	if statusCode(err) != http.StatusNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteUserRequiresAdmin(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	user, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}
	victim, err := env.newUser("xyz")
	if err != nil {
		t.Fatal(err)
	}

	err = user.deleteUser(victim.userId)
	if statusCode(err) != http.StatusForbidden {
		t.Fatalf("non-admin delete should be forbidden, got %v", err)
	}

	// Target must be untouched after the rejected delete.
	if _, err := victim.userInfo(); err != nil {
		t.Fatalf("target should still exist: %v", err)
	}

	err = admin.deleteUser(uuid.NewString())
	if statusCode(err) != http.StatusNotFound {
		t.Fatalf("deleting unknown user should be not found, got %v", err)
	}

	if err := admin.deleteUser(victim.userId); err != nil {
		t.Fatal(err)
	}

	err = admin.deleteUser(victim.userId)
	if statusCode(err) != http.StatusNotFound {
		t.Fatalf("repeated delete should be not found, got %v", err)
	}

	users, err := admin.listUsers()
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range users {
		if u.Id.String() == victim.userId {
			t.Fatal("deleted user still listed")
		}
	}
}

func TestChangeSalary(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	user, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}

	_, err = user.changeSalary(user.userId, 90000)
	if statusCode(err) != http.StatusForbidden {
		t.Fatalf("non-admin salary change should be forbidden, got %v", err)
	}

	info, err := user.userInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Salary != schema.DefaultSalary {
		t.Fatalf("rejected change should not mutate salary, got %d", info.Salary)
	}

	updated, err := admin.changeSalary(user.userId, 90000)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Salary != 90000 {
		t.Fatalf("expected salary 90000, got %d", updated.Salary)
	}

	// Setting the same value again is fine.
	updated, err = admin.changeSalary(user.userId, 90000)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Salary != 90000 {
		t.Fatalf("expected salary 90000, got %d", updated.Salary)
	}

	_, err = admin.changeSalary(user.userId, -1)
	if statusCode(err) != http.StatusBadRequest {
		t.Fatalf("negative salary should be rejected, got %v", err)
	}

	_, err = admin.changeSalary(uuid.NewString(), 100)
	if statusCode(err) != http.StatusNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
