package repoargs

type CreateUser struct {
	Email    string
	FullName string
	Password string
}
