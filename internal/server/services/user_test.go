package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/auth"
	"github.com/dmitrijs2005/recipebook/internal/server/config"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/attributes"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/recipes"
	tokensrepo "github.com/dmitrijs2005/recipebook/internal/server/repositories/tokens"
	usersrepo "github.com/dmitrijs2005/recipebook/internal/server/repositories/users"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

type fakeUsersRepo struct {
	created   *models.User
	createErr error

	byEmail    *models.User
	byEmailErr error

	byID    *models.User
	byIDErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = 42
	f.created = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.byEmailErr != nil {
		return nil, f.byEmailErr
	}
	if f.byEmail == nil || f.byEmail.Email != email {
		return nil, common.ErrorNotFound
	}
	return f.byEmail, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	if f.byID == nil || f.byID.ID != id {
		return nil, common.ErrorNotFound
	}
	return f.byID, nil
}

type fakeTokensRepo struct {
	tokens    map[int64]*models.Token
	createErr error
	getErr    error
	findErr   error
	delErr    error
	creates   int
}

func newFakeTokensRepo() *fakeTokensRepo {
	return &fakeTokensRepo{tokens: map[int64]*models.Token{}}
}

func (f *fakeTokensRepo) Create(ctx context.Context, t *models.Token) error {
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[t.UserID] = t
	return nil
}

func (f *fakeTokensRepo) GetByUser(ctx context.Context, userID int64) (*models.Token, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	t, ok := f.tokens[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeTokensRepo) Find(ctx context.Context, key string) (*models.Token, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, t := range f.tokens {
		if t.Key == key {
			return t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTokensRepo) DeleteByUser(ctx context.Context, userID int64) error {
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.tokens, userID)
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	t *fakeTokensRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository        { return m.u }
func (m *fakeRepoManager) Tokens(db dbx.DBTX) tokensrepo.Repository      { return m.t }
func (m *fakeRepoManager) Tags(db dbx.DBTX) attributes.Repository        { return nil }
func (m *fakeRepoManager) Ingredients(db dbx.DBTX) attributes.Repository { return nil }
func (m *fakeRepoManager) Recipes(db dbx.DBTX) recipes.Repository        { return nil }

func newUserService(t *testing.T, rm *fakeRepoManager, validity time.Duration) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: validity,
	}
	return NewUserService(&fakeConn{}, rm, cfg)
}

func activeUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	h, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &models.User{ID: 7, Email: email, PasswordHash: h, IsActive: true}
}

func fieldMessages(t *testing.T, err error, field string) []string {
	t.Helper()
	var v *common.ValidationError
	require.ErrorAs(t, err, &v)
	return v.Fields[field]
}

// --- identity ---

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "test1@example.com", NormalizeEmail("test1@EXAMPLE.com"))
	assert.Equal(t, "test2@example.com", NormalizeEmail("Test2@Example.com"))
	assert.Equal(t, "test3@example.com", NormalizeEmail("TEST3@EXAMPLE.COM"))
	assert.Equal(t, "test4@example.com", NormalizeEmail("test4@example.COM"))
	assert.Equal(t, NormalizeEmail("A@B.c"), NormalizeEmail(NormalizeEmail("A@B.c")))
}

func TestCreateUser_NormalizesAndHashes(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, t: newFakeTokensRepo()}
	s := newUserService(t, rm, 0)

	u, err := s.CreateUser(context.Background(), "Test2@Example.com", "testpass123", UserExtra{Name: "Test"})
	require.NoError(t, err)

	assert.Equal(t, "test2@example.com", u.Email)
	assert.Equal(t, "Test", u.Name)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsStaff)
	assert.NotEqual(t, "testpass123", u.PasswordHash)

	ok, err := auth.VerifyPassword("testpass123", u.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateUser_EmptyEmail(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, t: newFakeTokensRepo()}
	s := newUserService(t, rm, 0)

	_, err := s.CreateUser(context.Background(), "", "test123", UserExtra{})
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Equal(t, []string{common.MsgRequired}, fieldMessages(t, err, "email"))
	assert.Nil(t, rm.u.created)
}

func TestCreateUser_DuplicateAndFailure(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{createErr: common.ErrorAlreadyExists}, t: newFakeTokensRepo()}
	s := newUserService(t, rm, 0)

	_, err := s.CreateUser(context.Background(), "a@example.com", "pw123", UserExtra{})
	assert.Equal(t, []string{msgEmailTaken}, fieldMessages(t, err, "email"))

	rm.u.createErr = errBoom{}
	_, err = s.CreateUser(context.Background(), "a@example.com", "pw123", UserExtra{})
	if err == nil || !regexp.MustCompile(`error creating user: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestCreateSuperuser(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, t: newFakeTokensRepo()}
	s := newUserService(t, rm, 0)

	u, err := s.CreateSuperuser(context.Background(), "Admin@Example.com", "test123")
	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)
	assert.True(t, u.IsStaff)
	assert.True(t, u.IsActive)
	assert.Equal(t, "admin@example.com", u.Email)
}

func TestRegister_Validation(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, t: newFakeTokensRepo()}
	s := newUserService(t, rm, 0)
	ctx := context.Background()

	_, err := s.Register(ctx, "test@example.com", "pw", "Test Name")
	assert.Equal(t, []string{msgPasswordShort}, fieldMessages(t, err, "password"))

	_, err = s.Register(ctx, "not-an-email", "testpass123", "Test Name")
	assert.Equal(t, []string{msgEmailInvalid}, fieldMessages(t, err, "email"))

	_, err = s.Register(ctx, "", "", "")
	assert.Equal(t, []string{common.MsgRequired}, fieldMessages(t, err, "email"))
	assert.Equal(t, []string{common.MsgRequired}, fieldMessages(t, err, "password"))
	assert.Equal(t, []string{common.MsgBlank}, fieldMessages(t, err, "name"))

	assert.Nil(t, rm.u.created, "nothing is stored on validation failure")

	u, err := s.Register(ctx, "test@example.com", "testpass123", "Test Name")
	require.NoError(t, err)
	assert.Equal(t, "Test Name", u.Name)
}

func TestVerifyCredentials(t *testing.T) {
	user := activeUser(t, "test@example.com", "goodpass")
	rm := &fakeRepoManager{u: &fakeUsersRepo{byEmail: user}, t: newFakeTokensRepo()}
	s := newUserService(t, rm, 0)
	ctx := context.Background()

	got, err := s.VerifyCredentials(ctx, "TEST@example.com", "goodpass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = s.VerifyCredentials(ctx, "test@example.com", "badpass")
	require.ErrorIs(t, err, common.ErrorAuthentication)

	_, err = s.VerifyCredentials(ctx, "ghost@example.com", "goodpass")
	require.ErrorIs(t, err, common.ErrorAuthentication)

	user.IsActive = false
	_, err = s.VerifyCredentials(ctx, "test@example.com", "goodpass")
	require.ErrorIs(t, err, common.ErrorAuthentication)

	rm.u.byEmailErr = errBoom{}
	_, err = s.VerifyCredentials(ctx, "test@example.com", "goodpass")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorAuthentication)
}

// --- tokens ---

func TestIssueToken_CreatesOnceAndReuses(t *testing.T) {
	user := activeUser(t, "test@example.com", "test-user-password123")
	rm := &fakeRepoManager{u: &fakeUsersRepo{byEmail: user, byID: user}, t: newFakeTokensRepo()}
	s := newUserService(t, rm, 0)
	ctx := context.Background()

	tok1, err := s.IssueToken(ctx, "test@example.com", "test-user-password123")
	require.NoError(t, err)
	require.NotEmpty(t, tok1)

	claims, err := auth.ParseToken(tok1, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Len(t, claims.ID, 40)
	assert.Nil(t, claims.ExpiresAt)

	tok2, err := s.IssueToken(ctx, "test@example.com", "test-user-password123")
	require.NoError(t, err)
	claims2, err := auth.ParseToken(tok2, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, claims.ID, claims2.ID, "token record is reused")
	assert.Equal(t, 1, rm.t.creates)
}

func TestIssueToken_Rejections(t *testing.T) {
	user := activeUser(t, "test@example.com", "goodpass")
	rm := &fakeRepoManager{u: &fakeUsersRepo{byEmail: user}, t: newFakeTokensRepo()}
	s := newUserService(t, rm, 0)
	ctx := context.Background()

	for _, c := range []struct{ email, password string }{
		{"test@example.com", "badpass"},
		{"test@example.com", ""},
		{"", "goodpass"},
		{"test2@example.com", "goodpass"},
	} {
		tok, err := s.IssueToken(ctx, c.email, c.password)
		require.ErrorIs(t, err, common.ErrorAuthentication, c)
		assert.Empty(t, tok)
	}
	assert.Empty(t, rm.t.tokens)
}

func TestIssueToken_ConcurrentCreateFallsBackToRead(t *testing.T) {
	user := activeUser(t, "test@example.com", "goodpass")
	tr := newFakeTokensRepo()
	tr.createErr = common.ErrorAlreadyExists
	rm := &fakeRepoManager{u: &fakeUsersRepo{byEmail: user}, t: tr}
	s := newUserService(t, rm, 0)

	_, err := s.IssueToken(context.Background(), "test@example.com", "goodpass")
	require.ErrorIs(t, err, common.ErrorNotFound, "the winner's row is read back")

	tr.createErr = errBoom{}
	_, err = s.IssueToken(context.Background(), "test@example.com", "goodpass")
	require.ErrorContains(t, err, "error creating token")
}

func TestIssueToken_WithExpiry(t *testing.T) {
	user := activeUser(t, "test@example.com", "goodpass")
	rm := &fakeRepoManager{u: &fakeUsersRepo{byEmail: user}, t: newFakeTokensRepo()}
	s := newUserService(t, rm, time.Hour)

	tok, err := s.IssueToken(context.Background(), "test@example.com", "goodpass")
	require.NoError(t, err)
	claims, err := auth.ParseToken(tok, []byte("k"))
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
}

func TestResolveCaller(t *testing.T) {
	user := activeUser(t, "test@example.com", "goodpass")
	rm := &fakeRepoManager{u: &fakeUsersRepo{byEmail: user, byID: user}, t: newFakeTokensRepo()}
	s := newUserService(t, rm, 0)
	ctx := context.Background()

	tok, err := s.IssueToken(ctx, "test@example.com", "goodpass")
	require.NoError(t, err)

	got, err := s.ResolveCaller(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = s.ResolveCaller(ctx, "")
	require.ErrorIs(t, err, common.ErrorUnauthenticated)

	_, err = s.ResolveCaller(ctx, "garbage")
	require.ErrorIs(t, err, common.ErrorUnauthenticated)

	forged, err := auth.GenerateToken(user.ID, rm.t.tokens[user.ID].Key, []byte("other-secret"), 0)
	require.NoError(t, err)
	_, err = s.ResolveCaller(ctx, forged)
	require.ErrorIs(t, err, common.ErrorUnauthenticated)

	wrongUser, err := auth.GenerateToken(99, rm.t.tokens[user.ID].Key, []byte("k"), 0)
	require.NoError(t, err)
	_, err = s.ResolveCaller(ctx, wrongUser)
	require.ErrorIs(t, err, common.ErrorUnauthenticated)

	past := time.Now().Add(-time.Hour)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        rm.t.tokens[user.ID].Key,
			ExpiresAt: jwt.NewNumericDate(past),
		},
		UserID: user.ID,
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = s.ResolveCaller(ctx, expired)
	require.ErrorIs(t, err, common.ErrorUnauthenticated)
	require.ErrorIs(t, err, common.ErrTokenExpired)

	user.IsActive = false
	_, err = s.ResolveCaller(ctx, tok)
	require.ErrorIs(t, err, common.ErrorUnauthenticated)
	user.IsActive = true

	rm.t.findErr = errBoom{}
	_, err = s.ResolveCaller(ctx, tok)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorUnauthenticated)
}

func TestRevokeToken(t *testing.T) {
	user := activeUser(t, "test@example.com", "goodpass")
	rm := &fakeRepoManager{u: &fakeUsersRepo{byEmail: user, byID: user}, t: newFakeTokensRepo()}
	s := newUserService(t, rm, 0)
	ctx := context.Background()

	tok, err := s.IssueToken(ctx, "test@example.com", "goodpass")
	require.NoError(t, err)

	require.NoError(t, s.RevokeToken(ctx, user.ID))
	_, err = s.ResolveCaller(ctx, tok)
	require.ErrorIs(t, err, common.ErrorUnauthenticated)

	rm.t.delErr = errors.New("db down")
	err = s.RevokeToken(ctx, user.ID)
	require.ErrorContains(t, err, "error deleting token")
}
