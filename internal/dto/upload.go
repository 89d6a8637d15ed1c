package dto

// HMISImportRequest selects the warehouse rows loaded as a new upload.
type HMISImportRequest struct {
	ProgramCoC  string `json:"program_coc" validate:"omitempty,max=64"`
	LocalCoC    string `json:"local_coc" validate:"omitempty,max=64"`
	ActiveSince string `json:"active_since" validate:"omitempty,datetime=2006-01-02"`
	Limit       int    `json:"limit" validate:"omitempty,min=1"`
}
