package ghapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// APIURL is the GitHub REST endpoint. Tests point it at a local server.
var APIURL = "https://api.github.com"

// InstallIDForRepo returns the installation ID for a given repository.
// client must authenticate as the GitHub App.
func InstallIDForRepo(
	ctx context.Context,
	client *http.Client,
	owner, repo string,
) (int64, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		APIURL+"/repos/"+owner+"/"+repo+"/installation",
		nil,
	)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("app not installed on %s/%s: %s", owner, repo, resp.Status)
	}

	var data struct {
		ID int64 `json:"id"`
	}

	err = json.NewDecoder(resp.Body).Decode(&data)
	if err != nil {
		return 0, err
	}

	return data.ID, nil
}
