package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cristianszwarc/ludmin/internal/models"
	"github.com/cristianszwarc/ludmin/internal/token"
)

const testSecret = "service-test-secret"

// fakeHasher is a transparent models.Hasher so tests can assert on stored
// values without bcrypt cost.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "h:" + password, nil }
func (fakeHasher) Compare(hash, password string) error {
	if hash == "h:"+password {
		return nil
	}
	return errors.New("mismatch")
}

// mockUserRepo implements UserRepository with per-test function fields.
// Unset functions report "no match" or succeed silently.
type mockUserRepo struct {
	FindByIDFunc           func(ctx context.Context, id string) (*models.User, error)
	FindByCurrentEmailFunc func(ctx context.Context, email string) (*models.User, error)
	FindByAnyEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	FindByDeviceFunc       func(ctx context.Context, userID, deviceID string) (*models.User, error)
	FindByDeviceRevFunc    func(ctx context.Context, userID, deviceID string, rev int) (*models.User, error)
	FindAllFunc            func(ctx context.Context) ([]models.User, error)
	InsertFunc             func(ctx context.Context, user *models.User) error
	UpdateDeviceFunc       func(ctx context.Context, userID, deviceID string, rev int, lastUsed time.Time) error
	PushDeviceFunc         func(ctx context.Context, userID string, device models.Device) error
	PullDeviceFunc         func(ctx context.Context, userID, deviceID string) error
	ReplaceFunc            func(ctx context.Context, user *models.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.FindByIDFunc == nil {
		return nil, nil
	}
	return m.FindByIDFunc(ctx, id)
}

func (m *mockUserRepo) FindByCurrentEmail(ctx context.Context, email string) (*models.User, error) {
	if m.FindByCurrentEmailFunc == nil {
		return nil, nil
	}
	return m.FindByCurrentEmailFunc(ctx, email)
}

func (m *mockUserRepo) FindByAnyEmail(ctx context.Context, email string) (*models.User, error) {
	if m.FindByAnyEmailFunc == nil {
		return nil, nil
	}
	return m.FindByAnyEmailFunc(ctx, email)
}

func (m *mockUserRepo) FindByDevice(ctx context.Context, userID, deviceID string) (*models.User, error) {
	if m.FindByDeviceFunc == nil {
		return nil, nil
	}
	return m.FindByDeviceFunc(ctx, userID, deviceID)
}

func (m *mockUserRepo) FindByDeviceRev(ctx context.Context, userID, deviceID string, rev int) (*models.User, error) {
	if m.FindByDeviceRevFunc == nil {
		return nil, nil
	}
	return m.FindByDeviceRevFunc(ctx, userID, deviceID, rev)
}

func (m *mockUserRepo) FindAll(ctx context.Context) ([]models.User, error) {
	if m.FindAllFunc == nil {
		return nil, nil
	}
	return m.FindAllFunc(ctx)
}

func (m *mockUserRepo) Insert(ctx context.Context, user *models.User) error {
	if m.InsertFunc == nil {
		return nil
	}
	return m.InsertFunc(ctx, user)
}

func (m *mockUserRepo) UpdateDevice(ctx context.Context, userID, deviceID string, rev int, lastUsed time.Time) error {
	if m.UpdateDeviceFunc == nil {
		return nil
	}
	return m.UpdateDeviceFunc(ctx, userID, deviceID, rev, lastUsed)
}

func (m *mockUserRepo) PushDevice(ctx context.Context, userID string, device models.Device) error {
	if m.PushDeviceFunc == nil {
		return nil
	}
	return m.PushDeviceFunc(ctx, userID, device)
}

func (m *mockUserRepo) PullDevice(ctx context.Context, userID, deviceID string) error {
	if m.PullDeviceFunc == nil {
		return nil
	}
	return m.PullDeviceFunc(ctx, userID, deviceID)
}

func (m *mockUserRepo) Replace(ctx context.Context, user *models.User) error {
	if m.ReplaceFunc == nil {
		return nil
	}
	return m.ReplaceFunc(ctx, user)
}

// mockResetRepo implements ResetRepository with per-test function fields.
type mockResetRepo struct {
	InsertFunc            func(ctx context.Context, reset *models.ResetRequest) error
	FindUsableFunc        func(ctx context.Context, email string) (*models.ResetRequest, error)
	IncrementFailuresFunc func(ctx context.Context, id primitive.ObjectID, now time.Time) error
	DisableFunc           func(ctx context.Context, id primitive.ObjectID, now time.Time) error
	FindAllFunc           func(ctx context.Context) ([]models.ResetRequest, error)
}

func (m *mockResetRepo) Insert(ctx context.Context, reset *models.ResetRequest) error {
	if m.InsertFunc == nil {
		return nil
	}
	return m.InsertFunc(ctx, reset)
}

func (m *mockResetRepo) FindUsable(ctx context.Context, email string) (*models.ResetRequest, error) {
	if m.FindUsableFunc == nil {
		return nil, nil
	}
	return m.FindUsableFunc(ctx, email)
}

func (m *mockResetRepo) IncrementFailures(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	if m.IncrementFailuresFunc == nil {
		return nil
	}
	return m.IncrementFailuresFunc(ctx, id, now)
}

func (m *mockResetRepo) Disable(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	if m.DisableFunc == nil {
		return nil
	}
	return m.DisableFunc(ctx, id, now)
}

func (m *mockResetRepo) FindAll(ctx context.Context) ([]models.ResetRequest, error) {
	if m.FindAllFunc == nil {
		return nil, nil
	}
	return m.FindAllFunc(ctx)
}

// storedUser builds a user with a current email, a current password "p1"
// and device d1 attached at rev 5.
func storedUser() *models.User {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.User{
		ID:       primitive.NewObjectID(),
		FullName: "Ada Lovelace",
		Emails: []models.EmailEntry{
			{Email: "a@x.com", Current: true, InsertedAt: now},
		},
		Passwords: []models.PasswordEntry{
			{Password: "h:p1", Current: true, InsertedAt: now},
		},
		Devices: []models.Device{
			{DeviceID: "d1", Rev: 5, LastUsed: now, Description: "laptop"},
		},
		InsertedAt: now,
	}
}

// bearers used across the service tests.

func publicBearer(t *testing.T, tokens *token.Service, deviceID string) *token.Bearer {
	t.Helper()
	raw, err := tokens.IssuePublic(deviceID, []string{token.AreaPublic})
	if err != nil {
		t.Fatal(err)
	}
	return tokens.Bearer("Bearer " + raw)
}

func loggedBearer(t *testing.T, tokens *token.Service, user *models.User, deviceID string, rev int) *token.Bearer {
	t.Helper()
	raw, err := tokens.IssueLogged(user, deviceID, []string{token.AreaBasics, token.AreaMaster}, rev)
	if err != nil {
		t.Fatal(err)
	}
	return tokens.Bearer("Bearer " + raw)
}

// expiredBearer issues a token that is already expired but still carries a
// verifiable signature under the same secret.
func expiredBearer(t *testing.T, issue func(*token.Service) (string, error)) *token.Bearer {
	t.Helper()
	expired := token.NewService(testSecret, -10)
	raw, err := issue(expired)
	if err != nil {
		t.Fatal(err)
	}
	return token.NewService(testSecret, 300).Bearer("Bearer " + raw)
}

func emptyBearer(tokens *token.Service) *token.Bearer {
	return tokens.Bearer("")
}
