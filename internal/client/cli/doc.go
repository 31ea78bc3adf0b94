// Package cli implements the carmarket command-line client.
//
// Commands:
//   - signup   create an account (password prompted without echo)
//   - login    print a session token for the account
//   - me       show the account behind CARMARKET_TOKEN
//   - add-car  create a listing and upload its images
//
// Commands that need a session read the token from --token or the
// CARMARKET_TOKEN environment variable.
package cli
