package flows

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Session   SessionDeps
	Register  RegisterDeps
	Login     LoginDeps
	Refresh   RefreshDeps
	Logout    LogoutDeps
	Recovery  RecoveryDeps
	Federated FederatedDeps
}
