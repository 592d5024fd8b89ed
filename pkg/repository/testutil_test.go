package repository_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/notifyme/pkg/domain/interfaces"
	"github.com/secmon-lab/notifyme/pkg/domain/model/notice"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"github.com/secmon-lab/notifyme/pkg/repository/firestore"
	"github.com/secmon-lab/notifyme/pkg/repository/memory"
	"github.com/secmon-lab/notifyme/pkg/utils/test"
)

func newFirestoreClient(t *testing.T) *firestore.Firestore {
	env := test.Firestore(t)
	client, err := firestore.New(t.Context(), env.ProjectID, env.DatabaseID)
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// runBoth runs testFn against the memory repository and, when configured,
// against Firestore.
func runBoth(t *testing.T, testFn func(t *testing.T, repo interfaces.Repository)) {
	t.Run("Memory", func(t *testing.T) {
		testFn(t, memory.New())
	})

	t.Run("Firestore", func(t *testing.T) {
		testFn(t, newFirestoreClient(t))
	})
}

// newTestAuthor returns a random author so that list queries in a shared
// database only see this test's notices.
func newTestAuthor() notice.Author {
	return notice.Author{
		ID:   types.UserID("test-user-" + uuid.NewString()),
		Name: "Test Resident",
	}
}

func newTestNotice(author notice.Author, category types.Category) *notice.Notice {
	return notice.Form{
		Title:       "Broken street light",
		Description: "The light near gate 2 has been off for a week",
		Category:    category,
		Location:    "Gate 2",
		Tag:         "Parking",
	}.NewNotice(author)
}
