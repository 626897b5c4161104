package notification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniasistencia/backend/core"
	. "github.com/uniasistencia/backend/core/notification"
	"github.com/uniasistencia/backend/tests"
)

func activeIDs(t *testing.T, svc *ConfigService) []string {
	confs, err := svc.List(context.Background())
	require.NoError(t, err)
	var ids []string
	for _, c := range confs {
		if c.Active {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func TestConfigService(t *testing.T) {
	ctx := context.Background()
	svc := testutil.NewEnv(t).Configs

	def, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.True(t, def.Active)
	assert.Equal(t, DefaultConfig().TeacherTemplate, def.TeacherTemplate)

	again, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, def.ID, again.ID, "the default config is created once")

	off := false
	inactive, err := svc.Create(ctx, NewConfig{Active: &off, Description: "borrador"})
	require.NoError(t, err)
	assert.False(t, inactive.Active)
	assert.Equal(t, []string{def.ID}, activeIDs(t, svc))

	created, err := svc.Create(ctx, NewConfig{EarlyCheckTime: "07:30"})
	require.NoError(t, err)
	assert.True(t, created.Active)
	assert.Equal(t, "07:30", created.EarlyCheckTime)
	assert.Equal(t, DefaultPrimaryCheckTime, created.PrimaryCheckTime)
	assert.Equal(t, []string{created.ID}, activeIDs(t, svc))

	on := true
	updated, err := svc.Update(ctx, inactive.ID, UpdateConfig{Active: &on})
	require.NoError(t, err)
	assert.True(t, updated.Active)
	assert.Greater(t, updated.Version, inactive.Version)
	assert.Equal(t, []string{inactive.ID}, activeIDs(t, svc))

	subject := "Aviso: {{courseName}}"
	edited, err := svc.Update(ctx, created.ID, UpdateConfig{TeacherSubject: &subject})
	require.NoError(t, err)
	assert.Equal(t, created.Version+1, edited.Version)
	assert.False(t, edited.Active)

	activated, err := svc.Activate(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, activated.Active)
	assert.Equal(t, []string{created.ID}, activeIDs(t, svc))

	_, err = svc.Activate(ctx, "65a1b2c3d4e5f6a7b8c9d0e1")
	assert.True(t, core.IsNotFound(err))
	assert.Equal(t, []string{created.ID}, activeIDs(t, svc))

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.True(t, core.IsNotFound(err))
}
