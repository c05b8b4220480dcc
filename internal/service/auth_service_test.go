package service

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"stockflow-backend/internal/model"
	"stockflow-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// recordingMailer keeps the last HTML body so tests can pull the reset link
// back out of it.
type recordingMailer struct {
	to   string
	html string
	err  error
}

func (m *recordingMailer) Send(to, _, _ string, _ []byte) error {
	if m.err != nil {
		return m.err
	}
	m.to = to
	return nil
}

func (m *recordingMailer) SendHTML(to, _, html string) error {
	if m.err != nil {
		return m.err
	}
	m.to = to
	m.html = html
	return nil
}

var resetTokenPattern = regexp.MustCompile(`token=([0-9a-f]{64})`)

func newAuthFixture(t *testing.T) (*gorm.DB, AuthService, *recordingMailer) {
	t.Helper()
	db := setupTestDB(t)
	mail := &recordingMailer{}
	svc := NewAuthService(
		repository.NewUserRepo(db),
		repository.NewTokenRepo(db),
		mail,
		"https://app.stockflow.test",
		zap.NewNop(),
	)
	return db, svc, mail
}

func TestRegisterAndLogin(t *testing.T) {
	_, svc, _ := newAuthFixture(t)

	user, err := svc.Register("maya@example.com", "hunter22", "Maya K")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NotEqual(t, "hunter22", user.Password, "password must be stored hashed")

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register("maya@example.com", "other", "Someone Else")
		assert.Equal(t, ErrEmailTaken, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login("maya@example.com", "wrong")
		assert.Equal(t, ErrInvalidCredentials, err)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login("ghost@example.com", "hunter22")
		assert.Equal(t, ErrInvalidCredentials, err)
	})

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login("maya@example.com", "hunter22")
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "maya@example.com", resp.User.Email)

		validated, err := svc.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, validated.User.ID)
	})
}

func TestLogin_RotatesTokenVersion(t *testing.T) {
	_, svc, _ := newAuthFixture(t)

	_, err := svc.Register("maya@example.com", "hunter22", "Maya K")
	require.NoError(t, err)

	first, err := svc.Login("maya@example.com", "hunter22")
	require.NoError(t, err)

	// A second login invalidates the first session's token
	second, err := svc.Login("maya@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.ValidateToken(first.Token)
	assert.Error(t, err)

	_, err = svc.ValidateToken(second.Token)
	assert.NoError(t, err)
}

func TestLogin_InactiveUser(t *testing.T) {
	db, svc, _ := newAuthFixture(t)

	user, err := svc.Register("maya@example.com", "hunter22", "Maya K")
	require.NoError(t, err)
	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	_, err = svc.Login("maya@example.com", "hunter22")
	assert.Equal(t, ErrUserInactive, err)
}

func TestForgotPassword_UnknownEmailLooksLikeSuccess(t *testing.T) {
	_, svc, mail := newAuthFixture(t)

	err := svc.ForgotPassword("nobody@example.com")
	assert.NoError(t, err)
	assert.Empty(t, mail.to, "no email may be sent for unknown accounts")
}

func TestPasswordResetFlow(t *testing.T) {
	db, svc, mail := newAuthFixture(t)

	user, err := svc.Register("maya@example.com", "hunter22", "Maya K")
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword("maya@example.com"))
	assert.Equal(t, "maya@example.com", mail.to)

	match := resetTokenPattern.FindStringSubmatch(mail.html)
	require.Len(t, match, 2, "reset email must carry the raw token")
	rawToken := match[1]

	// DB never holds the raw token
	var stored model.ResetToken
	require.NoError(t, db.First(&stored, "user_id = ?", user.ID).Error)
	assert.NotEqual(t, rawToken, stored.TokenHash)

	t.Run("wrong token rejected", func(t *testing.T) {
		err := svc.ResetPassword(user.ID, "deadbeef", "newpass99")
		assert.Equal(t, ErrInvalidResetLink, err)
	})

	t.Run("wrong user rejected", func(t *testing.T) {
		err := svc.ResetPassword(uuid.New(), rawToken, "newpass99")
		assert.Equal(t, ErrInvalidResetLink, err)
	})

	t.Run("valid token resets password", func(t *testing.T) {
		require.NoError(t, svc.ResetPassword(user.ID, rawToken, "newpass99"))

		_, err := svc.Login("maya@example.com", "hunter22")
		assert.Equal(t, ErrInvalidCredentials, err, "old password must stop working")

		_, err = svc.Login("maya@example.com", "newpass99")
		assert.NoError(t, err)
	})

	t.Run("token is single-use", func(t *testing.T) {
		err := svc.ResetPassword(user.ID, rawToken, "another00")
		assert.Equal(t, ErrInvalidResetLink, err)
	})
}

func TestPasswordReset_ExpiredToken(t *testing.T) {
	db, svc, mail := newAuthFixture(t)

	user, err := svc.Register("maya@example.com", "hunter22", "Maya K")
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword("maya@example.com"))

	rawToken := resetTokenPattern.FindStringSubmatch(mail.html)[1]

	// Age the token past its lifetime
	require.NoError(t, db.Model(&model.ResetToken{}).
		Where("user_id = ?", user.ID).
		Update("created_at", time.Now().Add(-model.ResetTokenTTL-time.Minute)).Error)

	err = svc.ResetPassword(user.ID, rawToken, "newpass99")
	assert.Equal(t, ErrInvalidResetLink, err)

	// Expired tokens are purged on sight
	var count int64
	require.NoError(t, db.Model(&model.ResetToken{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestForgotPassword_NewRequestReplacesToken(t *testing.T) {
	db, svc, mail := newAuthFixture(t)

	user, err := svc.Register("maya@example.com", "hunter22", "Maya K")
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword("maya@example.com"))
	firstToken := resetTokenPattern.FindStringSubmatch(mail.html)[1]

	require.NoError(t, svc.ForgotPassword("maya@example.com"))
	secondToken := resetTokenPattern.FindStringSubmatch(mail.html)[1]
	require.NotEqual(t, firstToken, secondToken)

	var count int64
	require.NoError(t, db.Model(&model.ResetToken{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count, "only the newest token may remain")

	err = svc.ResetPassword(user.ID, firstToken, "newpass99")
	assert.Equal(t, ErrInvalidResetLink, err)

	assert.NoError(t, svc.ResetPassword(user.ID, secondToken, "newpass99"))
}

func TestForgotPassword_MailFailureSurfaces(t *testing.T) {
	_, svc, mail := newAuthFixture(t)

	_, err := svc.Register("maya@example.com", "hunter22", "Maya K")
	require.NoError(t, err)

	mail.err = errors.New("smtp refused")
	assert.Error(t, svc.ForgotPassword("maya@example.com"))
}
