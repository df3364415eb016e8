package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/curricula/internal/pkg/apperrors"
	pkgAuth "github.com/yigit/curricula/internal/pkg/auth"
)

func TestResolve_CreatesProfileOnce(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(t, pkgAuth.RoleStudent)
	ctx := context.Background()

	first, err := f.profiles.Resolve(ctx, userID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, first[0].IsCanonical())

	second, err := f.profiles.Resolve(ctx, userID)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestResolve_CanonicalFirst(t *testing.T) {
	f := newFixture(t)
	userID, canonical := f.addStudent(t, "Ada")
	alias := f.addAlias(t, canonical)

	profiles, err := f.profiles.Resolve(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, canonical.ID, profiles[0].ID)
	assert.Equal(t, alias.ID, profiles[1].ID)
}

func TestResolveByProfileIDOrUserID(t *testing.T) {
	f := newFixture(t)
	userID, canonical := f.addStudent(t, "Ada")
	alias := f.addAlias(t, canonical)
	ctx := f.teacherCtx()

	tests := []struct {
		name    string
		id      uuid.UUID
		wantErr error
	}{
		{name: "profile id", id: canonical.ID},
		{name: "user id", id: userID},
		{name: "merged alias", id: alias.ID},
		{name: "unknown", id: uuid.New(), wantErr: apperrors.ErrResourceNotFound},
		{name: "teacher user", id: f.teacherID, wantErr: apperrors.ErrResourceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := f.profiles.ResolveByProfileIDOrUserID(ctx, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, canonical.ID, p.ID)
		})
	}
}

func TestProfileIDs_IncludesAliases(t *testing.T) {
	f := newFixture(t)
	_, canonical := f.addStudent(t, "Ada")
	alias := f.addAlias(t, canonical)

	ids, err := f.profiles.ProfileIDs(context.Background(), &canonical)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{canonical.ID, alias.ID}, ids)
}

func TestGetProfile_Authorization(t *testing.T) {
	f := newFixture(t)
	owner, profile := f.addStudent(t, "Ada")
	other, _ := f.addStudent(t, "Bob")

	p, err := f.profiles.GetProfile(studentCtx(owner), profile.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FullName)

	_, err = f.profiles.GetProfile(studentCtx(other), profile.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = f.profiles.GetProfile(f.teacherCtx(), "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestResolveByUserID_DeniedReadCreatesNothing(t *testing.T) {
	f := newFixture(t)
	attacker, _ := f.addStudent(t, "Mallory")
	victim := f.addUser(t, pkgAuth.RoleStudent)

	_, err := f.profiles.GetProfile(studentCtx(attacker), victim.String())
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	profiles, err := memProfiles{f.db}.ListByUserID(context.Background(), victim)
	require.NoError(t, err)
	assert.Empty(t, profiles)

	_, err = f.profiles.GetProfile(studentCtx(attacker), uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied, "unknown ids look the same as other students' ids")

	p, err := f.profiles.GetProfile(studentCtx(victim), victim.String())
	require.NoError(t, err)
	assert.Equal(t, victim, p.UserID)
}
