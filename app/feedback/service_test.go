package feedback

import (
	"errors"
	"math"
	"testing"

	"github.com/personaflow/personaflow/app/database"
)

type fakeQueueRepo struct {
	database.QueueRepository

	lastArticleID string
	lastAction    string
	profile       []float32
	article       []float32
	result        *database.FeedbackResult
	err           error
}

func (f *fakeQueueRepo) ApplyFeedback(articleID, action string, updateProfile func(old, article []float32) []float32) (*database.FeedbackResult, error) {
	f.lastArticleID = articleID
	f.lastAction = action

	if f.err != nil {
		return nil, f.err
	}

	if action == "like" && updateProfile != nil {
		f.profile = updateProfile(f.profile, f.article)
	}

	return f.result, nil
}

func TestApplyLikeUpdatesProfile(t *testing.T) {
	repo := &fakeQueueRepo{
		profile: []float32{1, 0},
		article: []float32{0, 1},
		result:  &database.FeedbackResult{EntryID: "e1", NewStatus: database.QueueStatusLiked, Applied: true, ProfileUpdated: true},
	}

	service := NewService(repo, 0.1)

	result, err := service.Apply("a1", "like")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !result.Applied {
		t.Error("Expected feedback to be applied")
	}
	if repo.lastArticleID != "a1" || repo.lastAction != "like" {
		t.Errorf("Expected repo called with a1/like, got %s/%s", repo.lastArticleID, repo.lastAction)
	}

	expected := []float32{0.9, 0.1}
	for i := range expected {
		if math.Abs(float64(repo.profile[i]-expected[i])) > 1e-6 {
			t.Errorf("Expected profile component %d to be %v, got %v", i, expected[i], repo.profile[i])
		}
	}
}

func TestApplySkipLeavesProfileAlone(t *testing.T) {
	repo := &fakeQueueRepo{
		profile: []float32{1, 0},
		article: []float32{0, 1},
		result:  &database.FeedbackResult{EntryID: "e1", NewStatus: database.QueueStatusSkipped, Applied: true},
	}

	service := NewService(repo, 0.1)

	if _, err := service.Apply("a1", "skip"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if repo.profile[0] != 1 || repo.profile[1] != 0 {
		t.Errorf("Expected profile unchanged after skip, got %v", repo.profile)
	}
}

func TestApplyPropagatesNotFound(t *testing.T) {
	repo := &fakeQueueRepo{err: database.ErrEntryNotFound}

	service := NewService(repo, 0.1)

	_, err := service.Apply("missing", "like")
	if !errors.Is(err, database.ErrEntryNotFound) {
		t.Errorf("Expected ErrEntryNotFound, got %v", err)
	}
}
