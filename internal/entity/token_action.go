package entity

import (
	"crypto/md5"
	"fmt"
	"time"
)

type TokenAction struct {
	TokenId uint64     `json:"tokenId"`
	Action  ActionType `json:"action"`
	From    string     `json:"from"`
	To      string     `json:"to"`
	Time    time.Time  `json:"time"`
}

type ActionType string

const (
	MintAction     ActionType = "mint"
	TransferAction ActionType = "transfer"
)

func (a TokenAction) Slug() string {
	return CreateTokenActionSlug(a.TokenId, string(a.Action), a.From, a.To, a.Time)
}

func CreateTokenActionSlug(tokenId uint64, action, from, to string, at time.Time) string {
	data := []byte(fmt.Sprintf("tokenaction-%d-%s-%s-%s-%d", tokenId, action, from, to, at.UnixNano()))
	return fmt.Sprintf("%x", md5.Sum(data))
}
