package test

import (
	"os"
	"testing"
)

const (
	EnvFirestoreProjectID  = "TEST_FIRESTORE_PROJECT_ID"
	EnvFirestoreDatabaseID = "TEST_FIRESTORE_DATABASE_ID"
)

// FirestoreEnv names the database used by repository integration tests.
type FirestoreEnv struct {
	ProjectID  string
	DatabaseID string
}

// Firestore returns the integration database, skipping t when it is not set.
func Firestore(t *testing.T) FirestoreEnv {
	t.Helper()
	return FirestoreEnv{
		ProjectID:  lookup(t, EnvFirestoreProjectID),
		DatabaseID: lookup(t, EnvFirestoreDatabaseID),
	}
}

func lookup(t *testing.T, key string) string {
	t.Helper()
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		t.Skipf("skipping test because %s is not set", key)
	}
	return v
}
