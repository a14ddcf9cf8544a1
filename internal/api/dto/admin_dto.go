package dto

// SetStatusRequest enables or disables a faculty account.
type SetStatusRequest struct {
	Active *bool `json:"isActive" validate:"required"`
}

// NotifyAllocationsRequest selects allocations to announce.
type NotifyAllocationsRequest struct {
	AllocationIDs []string `json:"allocationIds" validate:"required,min=1,dive,required"`
	Updated       bool     `json:"updated"`
}
