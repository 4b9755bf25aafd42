package authz

// Feature and resource names used across the permission tables. These
// mirror the route names of the admin surface.
const (
	FeatureDashboard      = "dashboard"
	FeaturePerangkatDaera = "perangkat-daerah"
	FeatureUPT            = "upt"
	FeatureJamKerja       = "jam-kerja"
	FeatureKegiatan       = "kegiatan"
	FeaturePresensi       = "presensi"
	FeaturePegawai        = "pegawai"
	FeaturePengguna       = "pengguna"
)

// Each action keeps its own independent table. A role may be able to view
// a resource it cannot create, edit or delete.
var (
	superAdminAccess = set(
		FeatureDashboard,
		FeaturePerangkatDaera,
		FeatureUPT,
		FeatureJamKerja,
		FeatureKegiatan,
		FeaturePresensi,
		FeaturePegawai,
		FeaturePengguna,
	)
	adminAccess = set(
		FeatureDashboard,
		FeatureJamKerja,
		FeatureKegiatan,
		FeaturePresensi,
		FeaturePegawai,
	)

	superAdminCreate = set(
		FeaturePerangkatDaera,
		FeatureUPT,
		FeatureJamKerja,
		FeatureKegiatan,
		FeaturePengguna,
	)
	adminCreate = set(
		FeatureJamKerja,
		FeatureKegiatan,
	)

	superAdminEdit = set(
		FeaturePerangkatDaera,
		FeatureUPT,
		FeatureJamKerja,
		FeatureKegiatan,
		FeaturePegawai,
		FeaturePengguna,
	)
	adminEdit = set(
		FeatureJamKerja,
		FeatureKegiatan,
	)

	superAdminDelete = set(
		FeaturePerangkatDaera,
		FeatureUPT,
		FeatureJamKerja,
		FeatureKegiatan,
		FeaturePengguna,
	)
	adminDelete = set(
		FeatureKegiatan,
	)
)

// CanAccess reports whether the role may view the named feature. The
// switch is exhaustive over Role so adding a role without deciding its
// tables shows up in review, not as a silent deny.
func CanAccess(role Role, feature string) bool {
	switch role {
	case RoleSuperAdmin:
		return superAdminAccess[feature]
	case RoleAdmin:
		return adminAccess[feature]
	case RoleAdminOPD, RoleAdminUPT:
		// Scope-constrained roles have no entries in these tables yet;
		// their effective reach comes from the AdminScope record
		// interpreted by the domain layer.
		return false
	}
	return false
}

// CanCreate reports whether the role may create the named resource.
func CanCreate(role Role, resource string) bool {
	switch role {
	case RoleSuperAdmin:
		return superAdminCreate[resource]
	case RoleAdmin:
		return adminCreate[resource]
	case RoleAdminOPD, RoleAdminUPT:
		return false
	}
	return false
}

// CanEdit reports whether the role may edit the named resource.
func CanEdit(role Role, resource string) bool {
	switch role {
	case RoleSuperAdmin:
		return superAdminEdit[resource]
	case RoleAdmin:
		return adminEdit[resource]
	case RoleAdminOPD, RoleAdminUPT:
		return false
	}
	return false
}

// CanDelete reports whether the role may delete the named resource.
func CanDelete(role Role, resource string) bool {
	switch role {
	case RoleSuperAdmin:
		return superAdminDelete[resource]
	case RoleAdmin:
		return adminDelete[resource]
	case RoleAdminOPD, RoleAdminUPT:
		return false
	}
	return false
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
