package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/adyen/checkout-sessions-go/internal/common/httpclient"
	"github.com/adyen/checkout-sessions-go/internal/sandbox"
)

type serverVersion struct {
	ServerVersion string `json:"serverVersion"`
	ApiVersion    string `json:"apiVersion"`
}

func (o *options) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version and check the server version",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := map[string]any{
				"version":     sandbox.Version,
				"api_version": sandbox.ApiVersion,
				"server_url":  o.cfg.Client.ServerURL,
			}

			client := httpclient.NewClient(&o.cfg.Client)
			raw, err := client.DoRequest(cmd.Context(), httpclient.RequestOptions{
				Method: http.MethodGet,
				Path:   "version",
			})
			var sv serverVersion
			if err == nil {
				err = jsonit.Unmarshal(raw, &sv)
			}
			if err != nil {
				out["server_error"] = "Unable to connect to server: " + err.Error()
			} else {
				out["server_version"] = sv.ServerVersion
				out["server_compatible"] = sandbox.IsVersionCompatible(sv.ServerVersion) && sv.ApiVersion == sandbox.ApiVersion
			}

			if o.jsonOutput {
				printJSON(cmd.OutOrStdout(), out)
				return nil
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "checkout CLI %s (api %s)\n", sandbox.Version, sandbox.ApiVersion)
			fmt.Fprintf(w, "Server URL: %s\n", o.cfg.Client.ServerURL)
			if msg, ok := out["server_error"]; ok {
				errorLabel.Fprintf(w, "%s\n", msg)
				return nil
			}
			if out["server_compatible"] == true {
				okLabel.Fprintf(w, "Server version: %s (compatible)\n", sv.ServerVersion)
			} else {
				warnLabel.Fprintf(w, "Server version: %s (incompatible)\n", sv.ServerVersion)
			}
			return nil
		},
	}
}
