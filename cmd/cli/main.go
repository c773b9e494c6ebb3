package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "transfer-cli",
		Short: "Money transfer CLI tool",
		Long:  `A command line interface for interacting with the money transfer API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the money transfer API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 70*time.Second, "Request timeout")

	var remarks string
	transferCmd := &cobra.Command{
		Use:   "transfer <from> <to> <amount>",
		Short: "Move money between two accounts",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			createTransfer(args[0], args[1], args[2], remarks)
		},
	}
	transferCmd.Flags().StringVar(&remarks, "remarks", "", "Free-form note attached to the transfer")
	rootCmd.AddCommand(transferCmd)

	balanceCmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "Show an account's current balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getBalance(args[0])
		},
	}
	rootCmd.AddCommand(balanceCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func createTransfer(from, to, amount, remarks string) {
	payload, _ := json.Marshal(map[string]string{
		"account_from_id": from,
		"account_to_id":   to,
		"amount":          amount,
		"remarks":         remarks,
		"source":          "cli",
	})

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+"/api/v1/transfers", "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		fmt.Printf("Transfer FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Transfer accepted\n")
	fmt.Printf("Transaction ID: %s\n", result["transaction_id"])
}

func getBalance(accountID string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/accounts/" + accountID + "/balance")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Balance lookup FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Account: %s\n", result["account_id"])
	fmt.Printf("Balance: %v\n", result["balance"])
}
