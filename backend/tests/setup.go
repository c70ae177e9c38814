package tests

import (
	"bytes"
	"fmt"
	"meritboard/backend/auth"
	"meritboard/backend/schema"
	"meritboard/backend/services"
	"testing"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	backend   services.Backend
	api       chi.Router
	imageHost *ImageHostStub
	db        *gorm.DB
}

const (
	adminEmail    = "admin123@mail.com"
	adminPassword = "admin_password123"
)

func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.AutoMigrate(schema.Entities()...); err != nil {
		t.Fatal(err)
	}

	userAuth, err := auth.NewBasicIdentityProvider(
		db,
		auth.NewAuditLogger(new(bytes.Buffer)),
		auth.BasicProviderArgs{
			Secret:         []byte("290zcv02ai249"),
			AdminFirstName: "admin",
			AdminLastName:  "admin",
			AdminEmail:     adminEmail,
			AdminPassword:  adminPassword,
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	imageHost := newImageHostStub()

	backend := services.NewBackend(db, userAuth, imageHost)

	return &testEnv{backend: backend, api: backend.Routes(), imageHost: imageHost, db: db}
}

func (t *testEnv) newClient() client {
	return client{api: t.api}
}

func (t *testEnv) newUser(name string) (client, error) {
	c := t.newClient()
	login, err := c.signup(name, "tester", name+"@mail.com", name+"_password")
	if err != nil {
		return client{}, err
	}

	err = c.login(login)
	if err != nil {
		return client{}, err
	}

	return c, nil
}

func (t *testEnv) adminClient() (client, error) {
	c := t.newClient()
	err := c.login(loginInfo{Email: adminEmail, Password: adminPassword})
	return c, err
}

// setupCatalog creates one event, one criteria with a sub-criterion, and a
// rating scale so rating tests have rows to submit against.
type catalogFixture struct {
	event       services.EventInfo
	criteria    services.CriteriaInfo
	subCriteria services.SubCriteriaInfo
	ratings     []services.RatingInfo
}

func setupCatalog(admin *client) (catalogFixture, error) {
	var fixture catalogFixture
	var err error

	fixture.event, err = admin.createEvent("spring review")
	if err != nil {
		return fixture, err
	}

	fixture.criteria, err = admin.createCriteria("teamwork")
	if err != nil {
		return fixture, err
	}

	fixture.subCriteria, err = admin.createSubCriteria("communication", fixture.criteria.Id)
	if err != nil {
		return fixture, err
	}

	for value, name := range []string{"poor", "fair", "good", "excellent"} {
		rating, err := admin.createRatingValue(name, value+1)
		if err != nil {
			return fixture, fmt.Errorf("error creating rating %v: %w", name, err)
		}
		fixture.ratings = append(fixture.ratings, rating)
	}

	return fixture, nil
}
