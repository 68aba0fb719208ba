package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"mspportal/internal/infra/auth/clientprincipal"
)

type principalPayload struct {
	IdentityProvider *string  `json:"identityProvider"`
	UserID           *string  `json:"userId"`
	UserDetails      *string  `json:"userDetails"`
	UserRoles        []string `json:"userRoles"`
}

func runPrincipalEncode(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("principal encode", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var idp, userID, user string
	var roles multiFlag
	fs.StringVar(&idp, "idp", "aad", "identity provider")
	fs.StringVar(&userID, "user-id", "", "user id")
	fs.StringVar(&user, "user", "", "user details (display name or email)")
	fs.Var(&roles, "role", "role (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	payload := principalPayload{
		IdentityProvider: optional(idp),
		UserID:           optional(userID),
		UserDetails:      optional(user),
		UserRoles:        []string(roles),
	}
	if payload.UserRoles == nil {
		payload.UserRoles = []string{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(stderr, "encode principal: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, base64.StdEncoding.EncodeToString(raw))
	return 0
}

func runPrincipalDecode(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "principal decode takes exactly one header value")
		return 1
	}
	principal, ok := clientprincipal.Decode(args[0])
	if !ok {
		fmt.Fprintln(stderr, "header does not carry a client principal")
		return 2
	}
	out, err := json.MarshalIndent(principalPayload{
		IdentityProvider: principal.IdentityProvider,
		UserID:           principal.UserID,
		UserDetails:      principal.UserDetails,
		UserRoles:        principal.UserRoles,
	}, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "render principal: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(out))
	return 0
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
