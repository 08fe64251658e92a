package auction

import (
	"github.com/gagliardetto/solana-go"
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/common"
	"github.com/rqzrqh/nft_auction/custody"
)

type CancelRequest struct {
	Auction            solana.PublicKey
	Seller             solana.PublicKey
	SellerAssetAccount solana.PublicKey
}

// Cancel returns the asset to the seller of an auction nobody bid on.
func (e *Engine) Cancel(env Env, req CancelRequest) error {
	rec, err := e.load(env, req.Auction)
	if err != nil {
		return err
	}
	if rec.CurrentBid != 0 {
		return xerrors.Errorf("auction has bid %d: %w", rec.CurrentBid, common.ErrInvalidCancel)
	}
	if req.Seller != rec.Seller {
		return xerrors.Errorf("caller %v is not seller %v: %w", req.Seller, rec.Seller, common.ErrInvalidCancel)
	}

	dest, err := env.Ledger.Account(req.SellerAssetAccount)
	if err != nil {
		return xerrors.Errorf("seller asset account %v: %v: %w", req.SellerAssetAccount, err, common.ErrInvalidSeller)
	}
	if dest.Owner != rec.Seller {
		return xerrors.Errorf("asset account %v owned by %v: %w", req.SellerAssetAccount, dest.Owner, common.ErrInvalidSeller)
	}

	custodyAddr, err := e.platform.CustodyAddress(rec.NftMint)
	if err != nil {
		return err
	}
	if err := env.Ledger.MoveAsset(custodyAddr, req.SellerAssetAccount, e.platform.Authority); err != nil {
		return xerrors.Errorf("return asset: %w", err)
	}
	if err := e.closeEscrow(env, custodyAddr, rec.Seller); err != nil {
		return err
	}
	if err := e.destroy(env, req.Auction, rec.Seller); err != nil {
		return err
	}

	log.Infow("auction cancelled", "auction", req.Auction, "seller", rec.Seller, "mint", rec.NftMint)
	return nil
}

// closeEscrow closes a platform-held account. Residual units are swept to
// the recipient's associated account, opened on demand.
func (e *Engine) closeEscrow(env Env, account, recipient solana.PublicKey) error {
	acct, err := env.Ledger.Account(account)
	if err != nil {
		return xerrors.Errorf("escrow %v: %w", account, err)
	}
	if acct.Amount > 0 {
		sweep, err := custody.AssociatedAddress(recipient, acct.Mint)
		if err != nil {
			return err
		}
		if _, err := env.Ledger.OpenAccount(sweep, recipient, acct.Mint, recipient); err != nil {
			return xerrors.Errorf("open sweep account: %w", err)
		}
	}
	if err := env.Ledger.CloseAccount(account, e.platform.Authority, recipient); err != nil {
		return xerrors.Errorf("close escrow %v: %w", account, err)
	}
	return nil
}

func (e *Engine) destroy(env Env, auction, recipient solana.PublicKey) error {
	rent, err := env.Records.Destroy(auction)
	if err != nil {
		return err
	}
	return env.Ledger.Credit(recipient, rent)
}
