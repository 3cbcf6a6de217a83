package main

import (
	"fmt"
	"io"
	"os"
)

const (
	keygenCommand         = "keygen"
	roleIDCommand         = "role-id"
	signMintCommand       = "sign-mint"
	verifyMintCommand     = "verify-mint"
	depositPayloadCommand = "deposit-payload"
	deployCommand         = "deploy"
	inspectCommand        = "inspect"
	grantsCommand         = "grants"

	defaultPassEnv = "NFTBRIDGE_KEYSTORE_PASS"
	defaultConfig  = "./nftbridge.toml"
)

type command struct {
	name    string
	summary string
	run     func(args []string, out io.Writer) error
}

var commands = []command{
	{keygenCommand, "Generate a signing key into an encrypted keystore", runKeygen},
	{roleIDCommand, "Print the 32-byte identifier of a role", runRoleID},
	{signMintCommand, "Sign a mint authorization with a minter keystore", runSignMint},
	{verifyMintCommand, "Recover the signer of a mint authorization", runVerifyMint},
	{depositPayloadCommand, "Encode the bridge deposit payload of a token id", runDepositPayload},
	{deployCommand, "Deploy the ledger contracts described by a config file", runDeploy},
	{inspectCommand, "Print the deployment recorded in the data directory", runInspect},
	{grantsCommand, "Export vesting grants as YAML", runGrants},
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}
	if err := dispatch(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(name string, args []string, out io.Writer) error {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd.run(args, out)
		}
	}
	usage(os.Stderr)
	return fmt.Errorf("unknown command %q", name)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "nftctl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-16s %s\n", cmd.name, cmd.summary)
	}
}
