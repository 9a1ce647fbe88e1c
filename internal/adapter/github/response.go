package github

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/m-zajac/orgcontributors/internal/app"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type reposResponse []struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (r reposResponse) ToRepos() []app.Repo {
	repos := make([]app.Repo, 0, len(r))
	for _, el := range r {
		repos = append(repos, app.Repo{
			ID:   el.ID,
			Name: el.Name,
		})
	}

	return repos
}

type contributorsResponse []struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

func (r contributorsResponse) ToContributors() []app.Contributor {
	cs := make([]app.Contributor, 0, len(r))
	for _, el := range r {
		cs = append(cs, app.Contributor{
			Login:         el.Login,
			Contributions: el.Contributions,
		})
	}

	return cs
}
