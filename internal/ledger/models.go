// models.go: ledger persistence models
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package ledger

import "time"

// Account owns a list of transactions in a single currency.
type Account struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Currency  string    `json:"currency" gorm:"not null;default:'EUR'"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for Account model
func (Account) TableName() string {
	return "accounts"
}

// Transaction is a signed movement on an account. Amount is expressed in
// minor units (cents), positive for income and negative for expenses.
type Transaction struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	AccountID  string    `json:"accountId" gorm:"column:account_id;index;not null"`
	Amount     int64     `json:"amount" gorm:"not null"`
	Category   string    `json:"category"`
	Note       string    `json:"note"`
	OccurredAt time.Time `json:"occurredAt" gorm:"column:occurred_at;index"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName specifies the table name for Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// NewTransaction is the input of Repository.AddTransaction.
type NewTransaction struct {
	Amount     int64
	Category   string
	Note       string
	OccurredAt time.Time
}

// Balance is the aggregate of an account's transactions.
type Balance struct {
	AccountID    string `json:"accountId"`
	Currency     string `json:"currency"`
	Amount       int64  `json:"amount"`
	Transactions int64  `json:"transactions"`
}
