package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/trezcool/campus/client"
)

// newConfig reads PORTAL_API_URL and PORTAL_TOKEN_FILE.
func newConfig() *viper.Viper {
	v := viper.New()
	v.SetDefault("apiURL", "http://localhost:5000/api")
	v.SetDefault("tokenFile", "")
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("apiURL", "PORTAL_API_URL")
	_ = v.BindEnv("tokenFile", "PORTAL_TOKEN_FILE")
	return v
}

func main() {
	conf := newConfig()

	tokenPath := conf.GetString("tokenFile")
	if tokenPath == "" {
		var err error
		if tokenPath, err = client.DefaultTokenPath("campus"); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	session := client.NewSession(client.New(conf.GetString("apiURL"), client.NewFileTokenStore(tokenPath)))
	if token, _ := session.Client().Tokens().Token(); token != "" {
		_, _ = session.RefreshUser(ctx) // a rejected token logs the user out
	}

	cli := newCommandLine(session, os.Stdout)
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintln(os.Stderr, "error:", client.ErrorMessage(err))
		}
		os.Exit(1)
	}
}
