package dao

import (
	"github.com/gagliardetto/solana-go"
	"golang.org/x/xerrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rqzrqh/nft_auction/custody"
	"github.com/rqzrqh/nft_auction/model"
	"github.com/rqzrqh/nft_auction/util"
)

// ledgerStore keeps token accounts, lamport balances and the journal in
// the database.
type ledgerStore struct {
	tx       *gorm.DB
	lockRows bool
}

var _ custody.Store = (*ledgerStore)(nil)

func (s *ledgerStore) query() *gorm.DB {
	if s.lockRows {
		return s.tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return s.tx
}

func (s *ledgerStore) GetAccount(address solana.PublicKey) (*custody.Account, error) {
	var row model.TokenAccount
	err := s.query().Where("address = ?", address.String()).Take(&row).Error
	if xerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, xerrors.Errorf("%v: %w", address, custody.ErrAccountNotFound)
	}
	if err != nil {
		return nil, err
	}
	return accountFromRow(&row)
}

func (s *ledgerStore) PutAccount(acct *custody.Account) error {
	row := model.TokenAccount{
		Address:  acct.Address.String(),
		Owner:    acct.Owner.String(),
		Mint:     acct.Mint.String(),
		Amount:   util.Decimal(acct.Amount),
		Lamports: util.Decimal(acct.Lamports),
	}
	return s.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "mint", "amount", "lamports"}),
	}).Create(&row).Error
}

func (s *ledgerStore) DeleteAccount(address solana.PublicKey) error {
	result := s.tx.Where("address = ?", address.String()).Delete(&model.TokenAccount{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return xerrors.Errorf("delete %v: %w", address, custody.ErrAccountNotFound)
	}
	return nil
}

func (s *ledgerStore) GetLamports(owner solana.PublicKey) (uint64, error) {
	var row model.SystemAccount
	err := s.query().Where("owner = ?", owner.String()).Take(&row).Error
	if xerrors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return util.Units(row.Lamports)
}

func (s *ledgerStore) PutLamports(owner solana.PublicKey, lamports uint64) error {
	row := model.SystemAccount{
		Owner:    owner.String(),
		Lamports: util.Decimal(lamports),
	}
	return s.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}},
		DoUpdates: clause.AssignmentColumns([]string{"lamports"}),
	}).Create(&row).Error
}

func (s *ledgerStore) Append(e custody.Entry) error {
	row := model.LedgerEntry{
		EntryID:  e.ID.String(),
		Kind:     string(e.Kind),
		Account:  keyString(e.Account),
		From:     keyString(e.From),
		To:       keyString(e.To),
		Mint:     keyString(e.Mint),
		Amount:   util.Decimal(e.Amount),
		Lamports: util.Decimal(e.Lamports),
	}
	return s.tx.Create(&row).Error
}

func accountFromRow(row *model.TokenAccount) (*custody.Account, error) {
	address, err := solana.PublicKeyFromBase58(row.Address)
	if err != nil {
		return nil, xerrors.Errorf("token account %d address: %w", row.ID, err)
	}
	owner, err := solana.PublicKeyFromBase58(row.Owner)
	if err != nil {
		return nil, xerrors.Errorf("token account %s owner: %w", row.Address, err)
	}
	mint, err := solana.PublicKeyFromBase58(row.Mint)
	if err != nil {
		return nil, xerrors.Errorf("token account %s mint: %w", row.Address, err)
	}
	amount, err := util.Units(row.Amount)
	if err != nil {
		return nil, err
	}
	lamports, err := util.Units(row.Lamports)
	if err != nil {
		return nil, err
	}
	return &custody.Account{Address: address, Owner: owner, Mint: mint, Amount: amount, Lamports: lamports}, nil
}

// keyString leaves unset keys empty instead of rendering the zero key.
func keyString(k solana.PublicKey) string {
	if k.IsZero() {
		return ""
	}
	return k.String()
}
