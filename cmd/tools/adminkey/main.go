// Command adminkey prints the argon2id hash to store in ADMIN_API_KEY_HASH.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/noah-isme/supermarket/internal/security"
)

func main() {
	key := ""
	if len(os.Args) > 1 {
		key = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "usage: adminkey <key>  (or pipe the key on stdin)")
			os.Exit(2)
		}
		key = line
	}
	key = strings.TrimSpace(key)
	if key == "" {
		fmt.Fprintln(os.Stderr, "admin key must not be empty")
		os.Exit(2)
	}
	hash, err := security.HashAdminKey(key)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
