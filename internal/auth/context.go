package auth

import (
	"gateway-server/internal/domain/account"

	"github.com/labstack/echo/v4"
)

// GetAccount returns the account the filter verified for this request.
// Guest-overridden and public requests have none.
func GetAccount(c echo.Context) (account.Account, bool) {
	acct, ok := c.Get(ContextKeyAccount).(account.Account)
	return acct, ok
}

// GetResult returns the filter's verdict, if the route is guarded.
func GetResult(c echo.Context) (Result, bool) {
	result, ok := c.Get(ContextKeyDecision).(Result)
	return result, ok
}
