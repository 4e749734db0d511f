package service

import "context"

type testTxRepos struct {
	analyses AnalysisRepositoryInterface
	prompts  PromptRepositoryInterface
}

func (t *testTxRepos) Analyses() AnalysisRepositoryInterface {
	return t.analyses
}

func (t *testTxRepos) Prompts() PromptRepositoryInterface {
	return t.prompts
}

type testTxRunner struct {
	repos  TxRepositories
	called bool
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called = true
	return fn(t.repos)
}
