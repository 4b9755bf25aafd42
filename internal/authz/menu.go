package authz

// MenuEntry is a navigation entry for the admin surface. A leaf carries a
// path; a parent carries children and no path.
type MenuEntry struct {
	Label    string
	Path     string
	Icon     string
	Children []MenuEntry
}

// IsLeaf reports whether the entry navigates directly.
func (e MenuEntry) IsLeaf() bool {
	return len(e.Children) == 0
}

// MenuForRole returns the ordered navigation menu for the role. Unknown
// roles get an empty menu: the navigation fails closed.
func MenuForRole(role Role) []MenuEntry {
	switch role {
	case RoleSuperAdmin:
		return []MenuEntry{
			{Label: "Dashboard", Path: "/dashboard", Icon: "home"},
			{
				Label: "Master Data", Icon: "database",
				Children: []MenuEntry{
					{Label: "Perangkat Daerah", Path: "/perangkat-daerah", Icon: "building"},
					{Label: "UPT", Path: "/upt", Icon: "sitemap"},
					{Label: "Jam Kerja", Path: "/jam-kerja", Icon: "clock"},
				},
			},
			{Label: "Kegiatan", Path: "/kegiatan", Icon: "calendar"},
			{Label: "Presensi", Path: "/presensi", Icon: "check-square"},
			{Label: "Pegawai", Path: "/pegawai", Icon: "users"},
			{Label: "Pengguna", Path: "/pengguna", Icon: "user-shield"},
		}
	case RoleAdmin:
		return []MenuEntry{
			{Label: "Dashboard", Path: "/dashboard", Icon: "home"},
			{Label: "Jam Kerja", Path: "/jam-kerja", Icon: "clock"},
			{Label: "Kegiatan", Path: "/kegiatan", Icon: "calendar"},
			{Label: "Presensi", Path: "/presensi", Icon: "check-square"},
			{Label: "Pegawai", Path: "/pegawai", Icon: "users"},
		}
	case RoleAdminOPD, RoleAdminUPT:
		// No menu tables populated for the scoped roles yet.
		return nil
	}
	return nil
}
