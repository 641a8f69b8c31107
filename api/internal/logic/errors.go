package logic

import (
	"errors"

	"github.com/qx/ledger_robot/api/internal/model"
	"github.com/qx/ledger_robot/api/internal/types"
)

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}

func isTypeNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}
