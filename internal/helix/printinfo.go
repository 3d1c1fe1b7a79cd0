package helix

import "slices"

// PrintInfo tracks one in-flight modified print.
type PrintInfo struct {
	OriginalFilename string   `json:"original_filename"`
	TempFilename     string   `json:"temp_filename"`
	SymlinkFilename  string   `json:"symlink_filename"`
	Modifications    []string `json:"modifications"`
	StartTime        float64  `json:"start_time"`
	JobID            string   `json:"job_id,omitempty"`
	DBID             int64    `json:"db_id,omitempty"`
	CleanupScheduled bool     `json:"cleanup_scheduled"`

	// Token identifies this registration. A later print under the same
	// symlink name gets a new token.
	Token string `json:"-"`
}

// Clone returns a copy that shares no slices with p.
func (p PrintInfo) Clone() PrintInfo {
	p.Modifications = slices.Clone(p.Modifications)
	if p.Modifications == nil {
		p.Modifications = []string{}
	}
	return p
}
