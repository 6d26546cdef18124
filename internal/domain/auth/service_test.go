package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	users  map[string]User // by id
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]User{}}
}

func (f *fakeStore) add(t *testing.T, username, role, password string) User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	f.nextID++
	id := string(rune('a' + f.nextID - 1))
	u := User{ID: id, Username: username, Role: role, PasswordHash: hash}
	f.users[id] = u
	return u
}

func (f *fakeStore) FindByUsername(_ context.Context, username string) (User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (f *fakeStore) FindByID(_ context.Context, id string) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) Exists(_ context.Context, username string) (bool, error) {
	_, err := f.FindByUsername(context.Background(), username)
	return err == nil, nil
}

func (f *fakeStore) Create(_ context.Context, u User) (string, error) {
	f.nextID++
	id := string(rune('a' + f.nextID - 1))
	u.ID = id
	f.users[id] = u
	return id, nil
}

func (f *fakeStore) List(_ context.Context) ([]User, error) {
	var out []User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, userID, hash string) error {
	u := f.users[userID]
	u.PasswordHash = hash
	f.users[userID] = u
	return nil
}

func (f *fakeStore) Delete(_ context.Context, userID string) error {
	delete(f.users, userID)
	return nil
}

func (f *fakeStore) CountAdmins(_ context.Context) (int, error) {
	count := 0
	for _, u := range f.users {
		if u.Role == RoleAdmin {
			count++
		}
	}
	return count, nil
}

type fakeAudit struct{ actions []string }

func (f *fakeAudit) Record(_ context.Context, action, _, _, _ string, _, _ any) error {
	f.actions = append(f.actions, action)
	return nil
}

func TestLoginIssuesParsableToken(t *testing.T) {
	store := newFakeStore()
	store.add(t, "admin", RoleAdmin, "s3cret")
	svc := NewService(store, &fakeAudit{}, "test-secret")

	token, user, err := svc.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	claims, err := ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newFakeStore()
	store.add(t, "admin", RoleAdmin, "s3cret")
	svc := NewService(store, &fakeAudit{}, "test-secret")

	_, _, err := svc.Login(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "ghost", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyPasswordByUserID(t *testing.T) {
	store := newFakeStore()
	user := store.add(t, "gerente", RoleManager, "folha2026")
	svc := NewService(store, &fakeAudit{}, "test-secret")

	require.NoError(t, svc.VerifyPassword(context.Background(), user.ID, "folha2026"))
	assert.ErrorIs(t, svc.VerifyPassword(context.Background(), user.ID, "nope"), ErrInvalidCredentials)
}

func TestCreateUserGuards(t *testing.T) {
	store := newFakeStore()
	store.add(t, "admin", RoleAdmin, "s3cret")
	auditLog := &fakeAudit{}
	svc := NewService(store, auditLog, "test-secret")

	_, err := svc.CreateUser(context.Background(), "admin", "Someone", RoleOperator, "pw")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.CreateUser(context.Background(), "nova", "Nova", "superuser", "pw")
	assert.ErrorIs(t, err, ErrInvalidRole)

	user, err := svc.CreateUser(context.Background(), "nova", "Nova", RoleOperator, "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, []string{"user_created"}, auditLog.actions)
}

func TestDeleteUserKeepsLastAdmin(t *testing.T) {
	store := newFakeStore()
	admin := store.add(t, "admin", RoleAdmin, "s3cret")
	operator := store.add(t, "op", RoleOperator, "pw")
	svc := NewService(store, &fakeAudit{}, "test-secret")

	err := svc.DeleteUser(context.Background(), admin.ID)
	require.Error(t, err)

	require.NoError(t, svc.DeleteUser(context.Background(), operator.ID))
	_, err = store.FindByID(context.Background(), operator.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestExpiredOrForgedTokenRejected(t *testing.T) {
	token, err := GenerateToken("secret-a", Claims{UserID: "u1", Role: RoleAdmin}, tokenTTL)
	require.NoError(t, err)

	_, err = ParseToken("secret-b", token)
	assert.Error(t, err)
}
