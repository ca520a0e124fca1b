package api

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	healthHandler   healthHandler
	authHandler     authHandler
	blogHandler     blogHandler
	blogPostHandler blogPostHandler
	commentHandler  commentHandler
	configHandler   configHandler
	assetHandler    assetHandler
	aclHandler      aclHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string `json:"error" example:"Internal Server Error"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Additional error details"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
}

// StatusResponse is the body of the admin write endpoints
// @Description Outcome of an admin write
type StatusResponse struct {
	Status  string `json:"status" example:"OK"`
	Message string `json:"message" example:"Settings successfully updated."`
}

const (
	statusOK    = "OK"
	statusError = "Error"

	msgSettingsUpdated = "Settings successfully updated."
	msgSettingsFailed  = "Settings failed to update."
	msgNotAuthorized   = "Current user not authorized."
	msgMemberAdded     = "User added to group."
	msgMemberRemoved   = "User removed from group."
)
