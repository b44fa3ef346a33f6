package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	coursesDomain "github.com/jinwei908/eth-market-course/business/courses/domain"
	walletApp "github.com/jinwei908/eth-market-course/business/wallet/app"
	walletDomain "github.com/jinwei908/eth-market-course/business/wallet/domain"
	"github.com/jinwei908/eth-market-course/internal/apperror"
	"github.com/jinwei908/eth-market-course/internal/asset"
	"github.com/jinwei908/eth-market-course/internal/logger"
)

// Coordinator drives marketplace transactions and keeps the ownership
// caches honest around them. Every mutation revalidates its dependent
// caches whether the transaction settled or reverted: a revert still means
// the local view may have drifted from the chain.
type Coordinator struct {
	wallet      *walletApp.WalletService
	writer      LedgerWriter
	revalidator Revalidator
	logger      logger.LoggerInterface
}

// NewCoordinator creates the coordinator.
func NewCoordinator(wallet *walletApp.WalletService, writer LedgerWriter, revalidator Revalidator, log logger.LoggerInterface) *Coordinator {
	return &Coordinator{
		wallet:      wallet,
		writer:      writer,
		revalidator: revalidator,
		logger:      log,
	}
}

// activeAccount resolves the signing account or fails the operation.
func (c *Coordinator) activeAccount(ctx context.Context) (*walletDomain.Account, error) {
	entry := c.wallet.Account(ctx)
	if entry.Data == nil {
		if entry.Err != nil {
			return nil, entry.Err
		}
		return nil, apperror.New(apperror.CodeNoAccount)
	}
	return entry.Data, nil
}

// adminAccount resolves the account and requires admin rights.
func (c *Coordinator) adminAccount(ctx context.Context) (*walletDomain.Account, error) {
	account, err := c.activeAccount(ctx)
	if err != nil {
		return nil, err
	}
	if !account.IsAdmin {
		return nil, apperror.New(apperror.CodeAdminOnly)
	}
	return account, nil
}

// Purchase buys a course for the first time. The order hash binds the
// course id to the buyer, and the proof binds the buyer's email hash to the
// order, so ownership can be verified later without storing the email.
func (c *Coordinator) Purchase(ctx context.Context, courseID, email string, price asset.Amount) (Settlement, error) {
	account, err := c.activeAccount(ctx)
	if err != nil {
		return Settlement{}, err
	}

	packedID, err := coursesDomain.PackCourseID(courseID)
	if err != nil {
		return Settlement{}, err
	}
	orderHash, err := coursesDomain.CourseHash(courseID, account.Address)
	if err != nil {
		return Settlement{}, err
	}
	proof := coursesDomain.PurchaseProof(coursesDomain.EmailHash(email), orderHash)

	defer c.revalidator.RevalidateOwned(ctx)

	settlement, err := c.writer.PurchaseCourse(ctx, account.Address, packedID, proof, price.Raw())
	if err != nil {
		c.logger.Warn(ctx, "purchase failed", "course_id", courseID, "error", err)
		return Settlement{}, err
	}

	c.logger.Info(ctx, "course purchased",
		"course_id", courseID,
		"order_hash", orderHash.Hex(),
		"tx", settlement.TxHash.Hex(),
	)
	return settlement, nil
}

// Repurchase re-buys a deactivated course. On settle the cached ownership
// record flips back to purchased ahead of the refetch.
func (c *Coordinator) Repurchase(ctx context.Context, hash common.Hash, price asset.Amount) (Settlement, error) {
	account, err := c.activeAccount(ctx)
	if err != nil {
		return Settlement{}, err
	}

	defer c.revalidator.RevalidateOwned(ctx)

	settlement, err := c.writer.RepurchaseCourse(ctx, account.Address, hash, price.Raw())
	if err != nil {
		c.logger.Warn(ctx, "repurchase failed", "hash", hash.Hex(), "error", err)
		return Settlement{}, err
	}

	c.revalidator.ApplyRepurchase(hash)
	c.logger.Info(ctx, "course repurchased", "hash", hash.Hex(), "tx", settlement.TxHash.Hex())
	return settlement, nil
}

// Activate marks a purchased course as activated.
func (c *Coordinator) Activate(ctx context.Context, hash common.Hash) (Settlement, error) {
	account, err := c.adminAccount(ctx)
	if err != nil {
		return Settlement{}, err
	}

	defer c.revalidator.RevalidateManaged(ctx)

	settlement, err := c.writer.ActivateCourse(ctx, account.Address, hash)
	if err != nil {
		c.logger.Warn(ctx, "activation failed", "hash", hash.Hex(), "error", err)
		return Settlement{}, err
	}

	c.logger.Info(ctx, "course activated", "hash", hash.Hex(), "tx", settlement.TxHash.Hex())
	return settlement, nil
}

// Deactivate refunds and deactivates a purchased course. The contract
// zeroes the stored price as part of the refund.
func (c *Coordinator) Deactivate(ctx context.Context, hash common.Hash) (Settlement, error) {
	account, err := c.adminAccount(ctx)
	if err != nil {
		return Settlement{}, err
	}

	defer c.revalidator.RevalidateManaged(ctx)

	settlement, err := c.writer.DeactivateCourse(ctx, account.Address, hash)
	if err != nil {
		c.logger.Warn(ctx, "deactivation failed", "hash", hash.Hex(), "error", err)
		return Settlement{}, err
	}

	c.logger.Info(ctx, "course deactivated", "hash", hash.Hex(), "tx", settlement.TxHash.Hex())
	return settlement, nil
}

// Withdraw moves contract funds to the owner. No ownership cache depends
// on the contract balance, so nothing revalidates.
func (c *Coordinator) Withdraw(ctx context.Context, amount asset.Amount) (Settlement, error) {
	account, err := c.adminAccount(ctx)
	if err != nil {
		return Settlement{}, err
	}

	settlement, err := c.writer.Withdraw(ctx, account.Address, amount.Raw())
	if err != nil {
		c.logger.Warn(ctx, "withdraw failed", "amount", amount.String(), "error", err)
		return Settlement{}, err
	}

	c.logger.Info(ctx, "funds withdrawn", "amount", amount.String(), "tx", settlement.TxHash.Hex())
	return settlement, nil
}

// EmergencyWithdraw drains the stopped contract.
func (c *Coordinator) EmergencyWithdraw(ctx context.Context) (Settlement, error) {
	account, err := c.adminAccount(ctx)
	if err != nil {
		return Settlement{}, err
	}

	settlement, err := c.writer.EmergencyWithdraw(ctx, account.Address)
	if err != nil {
		c.logger.Warn(ctx, "emergency withdraw failed", "error", err)
		return Settlement{}, err
	}

	c.logger.Info(ctx, "emergency withdraw complete", "tx", settlement.TxHash.Hex())
	return settlement, nil
}
