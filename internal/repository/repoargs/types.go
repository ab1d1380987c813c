package repoargs

type RepositoryName string

const (
	UserRepoName    RepositoryName = "user"
	AccountRepoName RepositoryName = "account"
	LedgerRepoName  RepositoryName = "ledger"
)
