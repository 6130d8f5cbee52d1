package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

type JoinResponse struct {
	Token string `json:"token"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func main() {
	apiAddr := "http://localhost:8081"

	// 1. Join as a guest
	reqBody, _ := json.Marshal(map[string]string{"username": "verify_guest"})
	resp, err := http.Post(apiAddr+"/join", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var joinResp JoinResponse
	if err := json.NewDecoder(resp.Body).Decode(&joinResp); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Guest token: %s...\n", joinResp.Token[:10])

	// 2. Get History for the guest's conversation
	log.Println("Fetching history for verify_guest...")
	req, _ := http.NewRequest("GET", apiAddr+"/history?guest=verify_guest", nil)
	req.Header.Add("Authorization", "Bearer "+joinResp.Token)

	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal("History request failed:", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	log.Printf("History: %s", string(body))

	// 3. Admin login and roster
	reqBody, _ = json.Marshal(map[string]string{"username": "admin", "password": "admin"})
	resp, err = http.Post(apiAddr+"/login", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Admin token: %s...\n", loginResp.Token[:10])

	log.Println("Fetching guest roster...")
	req, _ = http.NewRequest("GET", apiAddr+"/guests", nil)
	req.Header.Add("Authorization", "Bearer "+loginResp.Token)

	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal("Guests request failed:", err)
	}
	defer resp.Body.Close()

	body, _ = io.ReadAll(resp.Body)
	log.Printf("Guests: %s", string(body))
}
