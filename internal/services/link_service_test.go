package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/axellelanca/shorty/internal/apperrors"
	"github.com/axellelanca/shorty/internal/codespace"
	"github.com/axellelanca/shorty/internal/models"
	"github.com/axellelanca/shorty/internal/repository"
)

// newTestDB opens a fresh in-memory SQLite database with the same settings
// as production: TranslateError so unique-index violations surface as
// gorm.ErrDuplicatedKey. A single connection keeps SQLite happy under the
// concurrent tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Link{}, &models.RedirectEvent{}, &models.RefreshToken{}))
	return db
}

// newTestLinkService wires a LinkService over a fresh database with the
// given code length and a 24h anonymous lifetime cap.
func newTestLinkService(t *testing.T, codeLength int) (*LinkService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	space, err := codespace.New(codeLength)
	require.NoError(t, err)

	svc := NewLinkService(
		repository.NewLinkRepository(db),
		repository.NewUserRepository(db),
		space,
		24*time.Hour,
	)
	return svc, db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Name: "test", Email: email, Password: "irrelevant-hash"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func futureTime(d time.Duration) *time.Time {
	t := time.Now().Add(d)
	return &t
}

func TestCreateLink_AnonymousPolicy(t *testing.T) {
	svc, db := newTestLinkService(t, 5)
	user := createTestUser(t, db, "owner@example.com")

	tests := []struct {
		name      string
		userID    *uuid.UUID
		expiresAt *time.Time
		wantKind  *apperrors.Kind
	}{
		{
			name:      "anonymous with bounded lifetime succeeds",
			expiresAt: futureTime(90 * time.Second),
		},
		{
			name:     "anonymous without expiration is rejected",
			wantKind: kindPtr(apperrors.KindUnauthorized),
		},
		{
			name:      "anonymous beyond the temporary lifetime is rejected",
			expiresAt: futureTime(48 * time.Hour),
			wantKind:  kindPtr(apperrors.KindUnauthorized),
		},
		{
			name:      "expiration in the past is rejected",
			expiresAt: futureTime(-time.Minute),
			wantKind:  kindPtr(apperrors.KindBadRequest),
		},
		{
			name:   "owned link without expiration succeeds",
			userID: &user.ID,
		},
		{
			name:      "owned link beyond the temporary lifetime succeeds",
			userID:    &user.ID,
			expiresAt: futureTime(100 * 24 * time.Hour),
		},
		{
			name:     "unknown owner fails not found",
			userID:   uuidPtr(uuid.New()),
			wantKind: kindPtr(apperrors.KindNotFound),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := svc.CreateLink("https://example.com/page", tt.userID, tt.expiresAt)
			if tt.wantKind != nil {
				require.Error(t, err)
				assert.True(t, apperrors.IsKind(err, *tt.wantKind), "expected kind %v, got %v", *tt.wantKind, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, svc.space.Valid(link.Code), "code %q must match the configured pattern", link.Code)
			assert.Equal(t, "https://example.com/page", link.URL)
		})
	}
}

func TestCreateLink_CapacityExhausted(t *testing.T) {
	// Length 1 keeps the whole space at 26 codes.
	svc, db := newTestLinkService(t, 1)

	// Fill every code with a live link.
	for i := 0; i < 26; i++ {
		link := &models.Link{
			URL:       fmt.Sprintf("https://example.com/%d", i),
			Code:      string(codespace.Alphabet[i]),
			ExpiresAt: futureTime(time.Hour),
		}
		require.NoError(t, db.Create(link).Error)
	}

	_, err := svc.CreateLink("https://example.com/overflow", nil, futureTime(time.Minute))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInsufficientCapacity))

	// Fail-fast contract: no row was created.
	var count int64
	require.NoError(t, db.Model(&models.Link{}).Count(&count).Error)
	assert.Equal(t, int64(26), count)
}

func TestCreateLink_ReclaimsExpiredCode(t *testing.T) {
	svc, db := newTestLinkService(t, 1)
	user := createTestUser(t, db, "claimer@example.com")

	// 25 live links leave exactly one code free... except it is held by an
	// expired link, so the allocator must reclaim it in place.
	for i := 1; i < 26; i++ {
		link := &models.Link{
			URL:       fmt.Sprintf("https://example.com/%d", i),
			Code:      string(codespace.Alphabet[i]),
			ExpiresAt: futureTime(time.Hour),
		}
		require.NoError(t, db.Create(link).Error)
	}
	expired := &models.Link{
		URL:       "https://example.com/old",
		Code:      "A",
		ExpiresAt: futureTime(-time.Hour),
	}
	require.NoError(t, db.Create(expired).Error)

	link, err := svc.CreateLink("https://example.com/new", &user.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, expired.ID, link.ID, "reclamation must preserve the original identifier")
	assert.Equal(t, "A", link.Code)
	assert.Equal(t, "https://example.com/new", link.URL)
	require.NotNil(t, link.UserID)
	assert.Equal(t, user.ID, *link.UserID)
	assert.Nil(t, link.ExpiresAt)
}

func TestCreateLink_LiveCodesStayUnique(t *testing.T) {
	svc, _ := newTestLinkService(t, 2) // capacity 676

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		link, err := svc.CreateLink("https://example.com", nil, futureTime(time.Hour))
		require.NoError(t, err)
		assert.False(t, seen[link.Code], "live code %q allocated twice", link.Code)
		seen[link.Code] = true
	}
}

// duplicateOnceLinkRepo wraps a real repository and makes the first insert
// fail with gorm.ErrDuplicatedKey, as if another allocator had claimed the
// candidate between the free check and the insert.
type duplicateOnceLinkRepo struct {
	repository.LinkRepository
	createCalls int
}

func (r *duplicateOnceLinkRepo) Create(link *models.Link) error {
	r.createCalls++
	if r.createCalls == 1 {
		return gorm.ErrDuplicatedKey
	}
	return r.LinkRepository.Create(link)
}

func TestCreateLink_RetriesOnLostInsertRace(t *testing.T) {
	db := newTestDB(t)
	space, err := codespace.New(5)
	require.NoError(t, err)

	repo := &duplicateOnceLinkRepo{LinkRepository: repository.NewLinkRepository(db)}
	svc := NewLinkService(repo, repository.NewUserRepository(db), space, 24*time.Hour)

	link, err := svc.CreateLink("https://example.com", nil, futureTime(time.Hour))
	require.NoError(t, err, "a lost insert race is a collision, not an error")

	assert.Equal(t, 2, repo.createCalls, "the allocator must retry with a fresh candidate")
	assert.True(t, space.Valid(link.Code))

	// The winning insert really landed.
	var count int64
	require.NoError(t, db.Model(&models.Link{}).Where("code = ?", link.Code).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateLink_ConcurrentAllocations(t *testing.T) {
	svc, db := newTestLinkService(t, 2)

	const workers = 8
	const perWorker = 5

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := svc.CreateLink("https://example.com", nil, futureTime(time.Hour)); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent allocation failed: %v", err)
	}

	// No two live links may share a code.
	var total, distinct int64
	require.NoError(t, db.Model(&models.Link{}).Count(&total).Error)
	require.NoError(t, db.Model(&models.Link{}).Distinct("code").Count(&distinct).Error)
	assert.Equal(t, int64(workers*perWorker), total)
	assert.Equal(t, total, distinct)
}

func TestResolveCode(t *testing.T) {
	svc, _ := newTestLinkService(t, 5)

	live, err := svc.CreateLink("https://example.com/live", nil, futureTime(time.Hour))
	require.NoError(t, err)

	t.Run("live code resolves to its destination", func(t *testing.T) {
		link, err := svc.ResolveCode(live.Code)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/live", link.URL)
	})

	t.Run("unknown code fails not found", func(t *testing.T) {
		_, err := svc.ResolveCode("QQQQQ")
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})

	t.Run("expired code fails gone", func(t *testing.T) {
		expired, err := svc.CreateLink("https://example.com/soon", nil, futureTime(90*time.Second))
		require.NoError(t, err)

		// Advance the service clock past the 90s lifetime.
		svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		defer func() { svc.now = time.Now }()

		_, err = svc.ResolveCode(expired.Code)
		assert.True(t, apperrors.IsKind(err, apperrors.KindGone))
	})
}

func TestUpdateLink(t *testing.T) {
	svc, db := newTestLinkService(t, 5)
	user := createTestUser(t, db, "editor@example.com")

	link, err := svc.CreateLink("https://example.com/before", &user.ID, nil)
	require.NoError(t, err)

	t.Run("partial update changes only provided fields", func(t *testing.T) {
		newURL := "https://example.com/after"
		updated, err := svc.UpdateLink(link.ID, LinkUpdate{URL: &newURL})
		require.NoError(t, err)
		assert.Equal(t, newURL, updated.URL)
		assert.Equal(t, link.Code, updated.Code, "code must never change through update")
		assert.Equal(t, link.ID, updated.ID)
	})

	t.Run("empty update is a bad request", func(t *testing.T) {
		_, err := svc.UpdateLink(link.ID, LinkUpdate{})
		assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))
	})

	t.Run("unknown link fails not found", func(t *testing.T) {
		url := "https://example.com"
		_, err := svc.UpdateLink(uuid.New(), LinkUpdate{URL: &url})
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})

	t.Run("unknown new owner fails not found", func(t *testing.T) {
		_, err := svc.UpdateLink(link.ID, LinkUpdate{UserID: uuidPtr(uuid.New())})
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})
}

func TestListLinksByUser(t *testing.T) {
	svc, db := newTestLinkService(t, 5)
	user := createTestUser(t, db, "lister@example.com")

	for i := 0; i < 15; i++ {
		_, err := svc.CreateLink(fmt.Sprintf("https://example.com/%d", i), &user.ID, nil)
		require.NoError(t, err)
	}

	total, page1, err := svc.ListLinksByUser(user.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
	assert.Len(t, page1, 10)

	total, page2, err := svc.ListLinksByUser(user.ID, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
	assert.Len(t, page2, 5)

	_, _, err = svc.ListLinksByUser(uuid.New(), 1, 10)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func kindPtr(k apperrors.Kind) *apperrors.Kind { return &k }
func uuidPtr(id uuid.UUID) *uuid.UUID          { return &id }
