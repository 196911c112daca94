package registry

import (
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"time"
)

func createMintAction(tokenId uint64, owner string, at time.Time) entity.TokenAction {
	return entity.TokenAction{
		TokenId: tokenId,
		Action:  entity.MintAction,
		From:    "",
		To:      owner,
		Time:    at,
	}
}

func createTransferAction(tokenId uint64, from, to string, at time.Time) entity.TokenAction {
	return entity.TokenAction{
		TokenId: tokenId,
		Action:  entity.TransferAction,
		From:    from,
		To:      to,
		Time:    at,
	}
}
