package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/domain"
	"github.com/musaabMD/expoiosweb/internal/service"
	"github.com/musaabMD/expoiosweb/internal/service/review"
	"github.com/musaabMD/expoiosweb/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReviews overrides the review.Service methods a test needs; calling any
// other method panics through the nil embedded interface.
type fakeReviews struct {
	review.Service
	addFn    func(ctx context.Context, userID, questionID uuid.UUID) (*domain.ReviewCard, error)
	submitFn func(ctx context.Context, userID, questionID uuid.UUID, rating domain.Rating) (*review.Result, error)
	listFn   func(ctx context.Context, userID uuid.UUID, status *domain.CardStatus, limit int) ([]review.CardWithQuestion, error)
	dueFn    func(ctx context.Context, userID uuid.UUID, limit int) ([]review.CardWithQuestion, error)
	removeFn func(ctx context.Context, userID, questionID uuid.UUID) error
}

func (f *fakeReviews) AddToQueue(ctx context.Context, userID, questionID uuid.UUID) (*domain.ReviewCard, error) {
	return f.addFn(ctx, userID, questionID)
}

func (f *fakeReviews) SubmitReview(
	ctx context.Context,
	userID, questionID uuid.UUID,
	rating domain.Rating,
) (*review.Result, error) {
	return f.submitFn(ctx, userID, questionID, rating)
}

func (f *fakeReviews) ListCards(
	ctx context.Context,
	userID uuid.UUID,
	status *domain.CardStatus,
	limit int,
) ([]review.CardWithQuestion, error) {
	return f.listFn(ctx, userID, status, limit)
}

func (f *fakeReviews) DueCards(ctx context.Context, userID uuid.UUID, limit int) ([]review.CardWithQuestion, error) {
	return f.dueFn(ctx, userID, limit)
}

func (f *fakeReviews) RemoveFromQueue(ctx context.Context, userID, questionID uuid.UUID) error {
	return f.removeFn(ctx, userID, questionID)
}

func TestReviewHandler_AddCard(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	questionID := uuid.New()

	tests := []struct {
		name           string
		userID         uuid.UUID
		body           string
		serviceErr     error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "created",
			userID:         userID,
			body:           `{"question_id":"` + questionID.String() + `"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "unauthenticated",
			body:           `{"question_id":"` + questionID.String() + `"}`,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing question id",
			userID:         userID,
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid QuestionID: required field",
		},
		{
			name:           "malformed body",
			userID:         userID,
			body:           `{"question_id":`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request format",
		},
		{
			name:           "already queued",
			userID:         userID,
			body:           `{"question_id":"` + questionID.String() + `"}`,
			serviceErr:     service.ErrAlreadyExists,
			expectedStatus: http.StatusConflict,
			expectedError:  "Resource already exists",
		},
		{
			name:           "unknown question",
			userID:         userID,
			body:           `{"question_id":"` + questionID.String() + `"}`,
			serviceErr:     store.ErrQuestionNotFound,
			expectedStatus: http.StatusNotFound,
			expectedError:  "Question not found",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &fakeReviews{
				addFn: func(_ context.Context, u, q uuid.UUID) (*domain.ReviewCard, error) {
					if tc.serviceErr != nil {
						return nil, tc.serviceErr
					}
					assert.Equal(t, userID, u)
					assert.Equal(t, questionID, q)
					return domain.NewReviewCard(u, q, fixedNow)
				},
			}
			h := NewReviewHandler(svc, testLogger())
			rr := httptest.NewRecorder()

			h.AddCard(rr, newRequest(http.MethodPost, "/api/review/cards", tc.body, tc.userID, nil))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedError != "" {
				assert.Equal(t, tc.expectedError, errorMessage(t, rr))
			}
			if tc.expectedStatus == http.StatusCreated {
				card := decodeBody[domain.ReviewCard](t, rr)
				assert.Equal(t, domain.CardStatusNew, card.Status)
				assert.Equal(t, domain.DefaultEaseFactor, card.EaseFactor)
			}
		})
	}
}

func TestReviewHandler_SubmitReview(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	questionID := uuid.New()
	params := map[string]string{"questionID": questionID.String()}

	t.Run("rescheduled", func(t *testing.T) {
		t.Parallel()
		svc := &fakeReviews{
			submitFn: func(_ context.Context, _, q uuid.UUID, rating domain.Rating) (*review.Result, error) {
				assert.Equal(t, questionID, q)
				assert.Equal(t, domain.RatingGood, rating)
				return &review.Result{IntervalDays: 1, Status: domain.CardStatusLearning, NextReviewAt: fixedNow.AddDate(0, 0, 1)}, nil
			},
		}
		rr := httptest.NewRecorder()
		NewReviewHandler(svc, testLogger()).SubmitReview(rr,
			newRequest(http.MethodPost, "/", `{"rating":"good"}`, userID, params))

		require.Equal(t, http.StatusOK, rr.Code)
		result := decodeBody[review.Result](t, rr)
		assert.Equal(t, 1, result.IntervalDays)
		assert.Equal(t, domain.CardStatusLearning, result.Status)
	})

	t.Run("unknown rating rejected before the service", func(t *testing.T) {
		t.Parallel()
		rr := httptest.NewRecorder()
		NewReviewHandler(&fakeReviews{}, testLogger()).SubmitReview(rr,
			newRequest(http.MethodPost, "/", `{"rating":"perfect"}`, userID, params))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid Rating: invalid value", errorMessage(t, rr))
	})

	t.Run("invalid path id", func(t *testing.T) {
		t.Parallel()
		rr := httptest.NewRecorder()
		NewReviewHandler(&fakeReviews{}, testLogger()).SubmitReview(rr,
			newRequest(http.MethodPost, "/", `{"rating":"good"}`, userID, map[string]string{"questionID": "nope"}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid questionID: has invalid format", errorMessage(t, rr))
	})

	t.Run("card not queued", func(t *testing.T) {
		t.Parallel()
		svc := &fakeReviews{
			submitFn: func(context.Context, uuid.UUID, uuid.UUID, domain.Rating) (*review.Result, error) {
				return nil, store.ErrReviewCardNotFound
			},
		}
		rr := httptest.NewRecorder()
		NewReviewHandler(svc, testLogger()).SubmitReview(rr,
			newRequest(http.MethodPost, "/", `{"rating":"again"}`, userID, params))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestReviewHandler_ListCards(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name           string
		target         string
		expectedStatus int
		wantStatus     *domain.CardStatus
		wantLimit      int
	}{
		{name: "no filter", target: "/api/review/cards", expectedStatus: http.StatusOK},
		{
			name:           "status and limit",
			target:         "/api/review/cards?status=review&limit=20",
			expectedStatus: http.StatusOK,
			wantStatus:     ptr(domain.CardStatusReview),
			wantLimit:      20,
		},
		{name: "unknown status", target: "/api/review/cards?status=mastered", expectedStatus: http.StatusBadRequest},
		{name: "limit too large", target: "/api/review/cards?limit=100000", expectedStatus: http.StatusBadRequest},
		{name: "negative limit", target: "/api/review/cards?limit=-1", expectedStatus: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := &fakeReviews{
				listFn: func(_ context.Context, _ uuid.UUID, status *domain.CardStatus, limit int) ([]review.CardWithQuestion, error) {
					assert.Equal(t, tc.wantStatus, status)
					assert.Equal(t, tc.wantLimit, limit)
					return []review.CardWithQuestion{}, nil
				},
			}
			rr := httptest.NewRecorder()
			NewReviewHandler(svc, testLogger()).ListCards(rr, newRequest(http.MethodGet, tc.target, "", userID, nil))

			assert.Equal(t, tc.expectedStatus, rr.Code)
		})
	}
}

func TestReviewHandler_RemoveCard(t *testing.T) {
	t.Parallel()

	questionID := uuid.New()
	svc := &fakeReviews{
		removeFn: func(_ context.Context, _, q uuid.UUID) error {
			assert.Equal(t, questionID, q)
			return nil
		},
	}
	rr := httptest.NewRecorder()
	NewReviewHandler(svc, testLogger()).RemoveCard(rr,
		newRequest(http.MethodDelete, "/", "", uuid.New(), map[string]string{"questionID": questionID.String()}))

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func ptr[T any](v T) *T {
	return &v
}
