package dto

// VideoListResponse lists the catalog entries present on disk.
type VideoListResponse struct {
	Videos []string `json:"videos"`
}
