package admin

type AdminLoginRequest struct {
	// No "required" binding: an empty password must reach the gate and come
	// back as a rejection, not a validation error.
	Password string `json:"password" binding:"max=1024"`
}

type AdminSessionResponse struct {
	Authenticated bool `json:"authenticated"`
}
