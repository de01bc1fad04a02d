package token

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cristianszwarc/ludmin/internal/models"
)

const testSecret = "unit-test-secret"

func testUser(t *testing.T) *models.User {
	t.Helper()
	id, err := primitive.ObjectIDFromHex("656e6f756768206279746573")
	require.NoError(t, err)
	return &models.User{ID: id, FullName: "Ada Lovelace"}
}

func TestPublicTokenRoundTrip(t *testing.T) {
	svc := NewService(testSecret, 300)

	raw, err := svc.IssuePublic("device-aaaaaaaaaaaaaaaaaaaaaaaaaaa", []string{AreaPublic})
	require.NoError(t, err)

	claims, err := svc.Decode(raw, true)
	require.NoError(t, err)

	assert.Equal(t, "device-aaaaaaaaaaaaaaaaaaaaaaaaaaa", claims.DeviceID)
	assert.Equal(t, TypePublic, claims.Type)
	assert.Equal(t, []string{AreaPublic}, claims.Allowed)
	assert.Empty(t, claims.UserID)
	assert.Zero(t, claims.Rev)
}

func TestLoggedTokenRoundTrip(t *testing.T) {
	svc := NewService(testSecret, 300)
	user := testUser(t)

	raw, err := svc.IssueLogged(user, "d1", []string{AreaBasics, AreaMaster}, 7041)
	require.NoError(t, err)

	claims, err := svc.Decode(raw, true)
	require.NoError(t, err)

	assert.Equal(t, TypeLogged, claims.Type)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, 7041, claims.Rev)
	assert.Equal(t, "Ada Lovelace", claims.FullName)
	assert.True(t, claims.HasAccess(AreaBasics))
	assert.True(t, claims.HasAccess(AreaMaster))
	assert.False(t, claims.HasAccess(AreaPublic))
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	issuer := NewService(testSecret, 300)
	other := NewService("a-different-secret", 300)

	raw, err := issuer.IssuePublic("d1", []string{AreaPublic})
	require.NoError(t, err)

	_, err = other.Decode(raw, true)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	// signature stays enforced even when expiration checking is off
	_, err = other.Decode(raw, false)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestDecodeRejectsTamperedToken(t *testing.T) {
	svc := NewService(testSecret, 300)

	raw, err := svc.IssuePublic("d1", []string{AreaPublic})
	require.NoError(t, err)

	_, err = svc.Decode(raw+"x", true)
	require.Error(t, err)
}

func TestDecodeExpiredToken(t *testing.T) {
	// negative ttl stamps an exp already in the past
	expired := NewService(testSecret, -10)

	raw, err := expired.IssueLogged(testUser(t), "d1", []string{AreaBasics}, 1)
	require.NoError(t, err)

	_, err = expired.Decode(raw, true)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	claims, err := expired.Decode(raw, false)
	require.NoError(t, err)
	assert.Equal(t, "d1", claims.DeviceID)
	assert.Equal(t, 1, claims.Rev)
}

func TestDecodeMissingToken(t *testing.T) {
	svc := NewService(testSecret, 300)

	for _, raw := range []string{"", "Bearer", "Bearer   "} {
		_, err := svc.Decode(raw, true)
		require.ErrorIs(t, err, ErrNoToken, "raw=%q", raw)
	}
}

func TestDecodeStripsBearerPrefix(t *testing.T) {
	svc := NewService(testSecret, 300)

	raw, err := svc.IssuePublic("d1", []string{AreaPublic})
	require.NoError(t, err)

	claims, err := svc.Decode("Bearer "+raw, true)
	require.NoError(t, err)
	assert.Equal(t, "d1", claims.DeviceID)
}

func TestHasAccessNilSafety(t *testing.T) {
	var claims *Claims
	assert.False(t, claims.HasAccess(AreaPublic))

	var b *Bearer
	assert.False(t, b.HasAccess(AreaPublic))

	assert.False(t, (&Claims{}).HasAccess(AreaBasics))
}

func TestBearerIngressDecode(t *testing.T) {
	svc := NewService(testSecret, 300)

	raw, err := svc.IssuePublic("d1", []string{AreaPublic})
	require.NoError(t, err)

	b := svc.Bearer("Bearer " + raw)
	require.NotNil(t, b.Claims)
	assert.True(t, b.HasAccess(AreaPublic))

	// garbage header yields empty claims, not an error
	b = svc.Bearer("Bearer not-a-token")
	assert.Nil(t, b.Claims)
	assert.False(t, b.HasAccess(AreaPublic))

	_, err = b.DecodeOrFail(true)
	require.Error(t, err)
}

func TestExpiredBearerRecoversWithoutExpCheck(t *testing.T) {
	expired := NewService(testSecret, -10)

	raw, err := expired.IssueLogged(testUser(t), "d1", []string{AreaBasics}, 9)
	require.NoError(t, err)

	b := expired.Bearer("Bearer " + raw)
	assert.Nil(t, b.Claims, "strict ingress decode should fail on expiry")

	claims, err := b.DecodeOrFail(false)
	require.NoError(t, err)
	assert.Equal(t, 9, claims.Rev)
}
