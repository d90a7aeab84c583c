package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCasdoor struct {
	users map[string]*casdoorsdk.User
	err   error
}

func (f *fakeCasdoor) GetUser(name string) (*casdoorsdk.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[name], nil
}

func TestStaticDirectory(t *testing.T) {
	ctx := context.Background()

	strict := NewStaticDirectory(false, models.Learner{ID: "ana", Role: models.RoleStudent, IsActive: true})
	learner, err := strict.GetLearner(ctx, "ana")
	require.NoError(t, err)
	assert.True(t, learner.CanBeAssessed())

	_, err = strict.GetLearner(ctx, "bob")
	assert.True(t, apperrors.IsNotFound(err))

	strict.Put(models.Learner{ID: "bob", IsActive: false})
	learner, err = strict.GetLearner(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, learner.CanBeAssessed())

	open := NewStaticDirectory(true)
	learner, err = open.GetLearner(ctx, "anyone")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, learner.Role)
	assert.True(t, learner.IsActive)

	_, err = open.GetLearner(ctx, "")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCasdoorDirectory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	fake := &fakeCasdoor{users: map[string]*casdoorsdk.User{
		"ana":   {Name: "ana", DisplayName: "Ana Lima"},
		"blk":   {Name: "blk", IsForbidden: true},
		"tutor": {Name: "tutor", Tag: "Teacher"},
		"root":  {Name: "root", IsAdmin: true},
	}}
	dir := newCasdoorDirectory(fake, logger)

	learner, err := dir.GetLearner(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", learner.DisplayName)
	assert.Equal(t, models.RoleStudent, learner.Role)
	assert.True(t, learner.IsActive)

	learner, err = dir.GetLearner(ctx, "blk")
	require.NoError(t, err)
	assert.False(t, learner.IsActive)
	assert.Equal(t, "blk", learner.DisplayName)

	learner, err = dir.GetLearner(ctx, "tutor")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, learner.Role)

	learner, err = dir.GetLearner(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, learner.Role)

	_, err = dir.GetLearner(ctx, "ghost")
	assert.True(t, apperrors.IsNotFound(err))

	fake.err = errors.New("connection refused")
	_, err = dir.GetLearner(ctx, "ana")
	require.Error(t, err)
	assert.False(t, apperrors.IsNotFound(err))
}
