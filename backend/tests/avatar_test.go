package tests

import (
	"net/http"
	"strings"
	"testing"
)

// assetIdFromUrl extracts the asset id from the stub's url format
// http://images.test/<asset_id>/<name>.
func assetIdFromUrl(t *testing.T, url string) string {
	trimmed := strings.TrimPrefix(url, "http://images.test/")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		t.Fatalf("unexpected avatar url %v", url)
	}
	return parts[0]
}

func TestUploadAvatar(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}

	info, err := user.uploadAvatar("me.png", []byte("first image"))
	if err != nil {
		t.Fatal(err)
	}
	firstAsset := assetIdFromUrl(t, info.Avatar)

	// First upload, nothing to replace.
	if calls := env.imageHost.deleteCalls(); len(calls) != 0 {
		t.Fatalf("no delete should happen on first upload, got %v", calls)
	}
	if env.imageHost.assetCount() != 1 {
		t.Fatalf("expected 1 stored asset, got %d", env.imageHost.assetCount())
	}

	info, err = user.uploadAvatar("me2.png", []byte("second image"))
	if err != nil {
		t.Fatal(err)
	}
	secondAsset := assetIdFromUrl(t, info.Avatar)
	if secondAsset == firstAsset {
		t.Fatal("new upload should produce a new asset")
	}

	calls := env.imageHost.deleteCalls()
	if len(calls) != 1 || calls[0] != firstAsset {
		t.Fatalf("expected exactly one delete of %v, got %v", firstAsset, calls)
	}
	if env.imageHost.assetCount() != 1 {
		t.Fatalf("expected 1 stored asset, got %d", env.imageHost.assetCount())
	}

	persisted, err := user.userInfo()
	if err != nil {
		t.Fatal(err)
	}
	if persisted.Avatar != info.Avatar {
		t.Fatalf("avatar url not persisted, got %v", persisted.Avatar)
	}
}

func TestUploadAvatarDeleteFailureIsIgnored(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := user.uploadAvatar("me.png", []byte("first image")); err != nil {
		t.Fatal(err)
	}

	env.imageHost.failDeletes = true

	info, err := user.uploadAvatar("me2.png", []byte("second image"))
	if err != nil {
		t.Fatalf("upload should succeed even if replacing the old asset fails: %v", err)
	}

	if calls := env.imageHost.deleteCalls(); len(calls) != 1 {
		t.Fatalf("expected one delete attempt, got %v", calls)
	}

	persisted, err := user.userInfo()
	if err != nil {
		t.Fatal(err)
	}
	if persisted.Avatar != info.Avatar {
		t.Fatalf("avatar url not persisted, got %v", persisted.Avatar)
	}
}

func TestUploadAvatarRejectsBadRequests(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}

	_, err = user.uploadAvatar("me.png", []byte{})
	if statusCode(err) != http.StatusBadRequest {
		t.Fatalf("empty payload should be rejected, got %v", err)
	}

	anon := env.newClient()
	_, err = anon.uploadAvatar("me.png", []byte("image"))
	if err == nil {
		t.Fatal("avatar upload should require auth")
	}
}

func TestDeleteUserCleansUpAvatar(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	user, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}

	info, err := user.uploadAvatar("me.png", []byte("image"))
	if err != nil {
		t.Fatal(err)
	}
	asset := assetIdFromUrl(t, info.Avatar)

	if err := admin.deleteUser(user.userId); err != nil {
		t.Fatal(err)
	}

	calls := env.imageHost.deleteCalls()
	if len(calls) != 1 || calls[0] != asset {
		t.Fatalf("expected delete of %v, got %v", asset, calls)
	}
}
