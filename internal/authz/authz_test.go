package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleFromLevel(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		hasOPD bool
		hasUPT bool
		want   Role
	}{
		{name: "level 1 is super admin", level: "1", want: RoleSuperAdmin},
		{name: "level 2 is admin", level: "2", want: RoleAdmin},
		{name: "level 3 with OPD scope", level: "3", hasOPD: true, want: RoleAdminOPD},
		{name: "level 3 with UPT scope", level: "3", hasUPT: true, want: RoleAdminUPT},
		{name: "level 3 without scope defaults to OPD", level: "3", want: RoleAdminOPD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := RoleFromLevel(tt.level, tt.hasOPD, tt.hasUPT)
			require.NoError(t, err)
			assert.Equal(t, tt.want, role)
			assert.True(t, role.IsValid())
		})
	}

	t.Run("unknown levels are hard rejections", func(t *testing.T) {
		for _, level := range []string{"0", "4", "99", "", "admin"} {
			_, err := RoleFromLevel(level, false, false)
			assert.ErrorIs(t, err, ErrUnknownRoleLevel, "level %q", level)
		}
	})
}

func TestRoleFromTokenLevel(t *testing.T) {
	assert.Equal(t, RoleSuperAdmin, RoleFromTokenLevel("1"))
	// Claims can't distinguish the scoped sub-roles.
	assert.Equal(t, RoleAdmin, RoleFromTokenLevel("2"))
	assert.Equal(t, RoleAdmin, RoleFromTokenLevel("3"))
	assert.Equal(t, RoleAdmin, RoleFromTokenLevel(""))
}

func TestHasRole(t *testing.T) {
	assert.True(t, HasRole(RoleAdmin, RoleSuperAdmin, RoleAdmin))
	assert.False(t, HasRole(RoleAdminOPD, RoleSuperAdmin, RoleAdmin))
	assert.False(t, HasRole(RoleAdmin))
}

func TestPermissionTableClosure(t *testing.T) {
	t.Run("absent entries deny", func(t *testing.T) {
		// admin-opd has no entry in any table, so every check denies.
		assert.False(t, CanAccess(RoleAdminOPD, FeatureKegiatan))
		assert.False(t, CanCreate(RoleAdminOPD, FeatureKegiatan))
		assert.False(t, CanEdit(RoleAdminUPT, FeatureJamKerja))
		assert.False(t, CanDelete(RoleAdminUPT, FeatureKegiatan))
	})

	t.Run("unknown feature denies for every role", func(t *testing.T) {
		for _, role := range []Role{RoleSuperAdmin, RoleAdmin, RoleAdminOPD, RoleAdminUPT} {
			assert.False(t, CanAccess(role, "no-such-feature"))
			assert.False(t, CanCreate(role, "no-such-feature"))
		}
	})

	t.Run("unknown role denies", func(t *testing.T) {
		assert.False(t, CanAccess(Role("operator"), FeatureDashboard))
	})

	t.Run("view without edit", func(t *testing.T) {
		// The action tables are independent: admin can see presensi but
		// not create it.
		assert.True(t, CanAccess(RoleAdmin, FeaturePresensi))
		assert.False(t, CanCreate(RoleAdmin, FeaturePresensi))
		// ...and can edit kegiatan but not perangkat daerah.
		assert.True(t, CanEdit(RoleAdmin, FeatureKegiatan))
		assert.False(t, CanEdit(RoleAdmin, FeaturePerangkatDaera))
	})

	t.Run("super admin full access set", func(t *testing.T) {
		for _, f := range []string{
			FeatureDashboard, FeaturePerangkatDaera, FeatureUPT,
			FeatureJamKerja, FeatureKegiatan, FeaturePresensi,
			FeaturePegawai, FeaturePengguna,
		} {
			assert.True(t, CanAccess(RoleSuperAdmin, f), "feature %q", f)
		}
	})
}

func TestMenuForRole(t *testing.T) {
	t.Run("super admin menu is ordered and mixed", func(t *testing.T) {
		menu := MenuForRole(RoleSuperAdmin)
		require.NotEmpty(t, menu)
		assert.Equal(t, "Dashboard", menu[0].Label)
		assert.True(t, menu[0].IsLeaf())

		// Master Data is a parent with leaves.
		assert.Equal(t, "Master Data", menu[1].Label)
		assert.False(t, menu[1].IsLeaf())
		require.Len(t, menu[1].Children, 3)
		assert.Equal(t, "/perangkat-daerah", menu[1].Children[0].Path)
	})

	t.Run("admin menu excludes master data", func(t *testing.T) {
		menu := MenuForRole(RoleAdmin)
		require.NotEmpty(t, menu)
		for _, entry := range menu {
			assert.NotEqual(t, "Master Data", entry.Label)
			assert.NotEqual(t, "/pengguna", entry.Path)
		}
	})

	t.Run("unknown and scoped roles fail closed", func(t *testing.T) {
		assert.Empty(t, MenuForRole(RoleAdminOPD))
		assert.Empty(t, MenuForRole(RoleAdminUPT))
		assert.Empty(t, MenuForRole(Role("operator")))
	})
}
