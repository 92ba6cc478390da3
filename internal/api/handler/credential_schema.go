package handler

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type credentialsRequest struct {
	Email    string `json:"email"    validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
}

type accountSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type loginResponse struct {
	Token   string         `json:"token"`
	Account accountSummary `json:"account"`
}

type profileResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// --- Credentials ---

// createCredentialRequest also accepts the web client's misspelled
// "platfromusernameOrEmail" key.
type createCredentialRequest struct {
	Platform             string `json:"platform"                validate:"max=200"`
	UsernameOrEmail      string `json:"usernameOrEmail"         validate:"max=320"`
	UsernameOrEmailAlias string `json:"platfromusernameOrEmail" validate:"max=320"`
	WebsiteURL           string `json:"websiteUrl"              validate:"max=2048"`
	Description          string `json:"description"             validate:"max=2000"`
	Password             string `json:"password"                validate:"max=4096"`
}

// updateCredentialRequest is a partial update; absent keys are left untouched.
type updateCredentialRequest struct {
	Platform             *string `json:"platform"                validate:"omitnil,max=200"`
	UsernameOrEmail      *string `json:"usernameOrEmail"         validate:"omitnil,max=320"`
	UsernameOrEmailAlias *string `json:"platfromusernameOrEmail" validate:"omitnil,max=320"`
	WebsiteURL           *string `json:"websiteUrl"              validate:"omitnil,max=2048"`
	Description          *string `json:"description"             validate:"omitnil,max=2000"`
	Password             *string `json:"password"                validate:"omitnil,max=4096"`
}

// credentialResponse carries the sealed password unless the caller asked
// for it to be revealed.
type credentialResponse struct {
	ID              string `json:"id"`
	Platform        string `json:"platform"`
	UsernameOrEmail string `json:"usernameOrEmail"`
	WebsiteURL      string `json:"websiteUrl"`
	Description     string `json:"description"`
	Password        string `json:"password"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

type secretResponse struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}
