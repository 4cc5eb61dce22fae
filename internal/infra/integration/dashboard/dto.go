package dashboard

type ingestRequest struct {
	ClientID         string `json:"client_id,omitempty"`
	Tier             string `json:"tier"`
	Name             string `json:"name,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	ProjectType      string `json:"project_type,omitempty"`
	EstimatedValue   string `json:"estimated_value,omitempty"`
	Source           string `json:"source"`
	LeadSourceDetail string `json:"lead_source_detail,omitempty"`
	Status           string `json:"status,omitempty"`
}

type ingestResponse struct {
	Success  bool   `json:"success"`
	LeadID   int64  `json:"lead_id"`
	ClientID string `json:"client_id"`
}
