package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loykin/fsapi/internal/apperr"
	"github.com/loykin/fsapi/internal/common"
	"github.com/loykin/fsapi/internal/config"
	"github.com/loykin/fsapi/internal/db"
	"github.com/loykin/fsapi/internal/query"
)

var QueryCmd = &cobra.Command{
	Use:   "query '<sql>'",
	Short: "Execute a SQL statement and print the result",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sql := strings.Join(args, " ")
		if strings.TrimSpace(sql) == "" {
			return apperr.InvalidArgument("SQL query is required")
		}
		return withConn(cmd.Context(), func(ctx context.Context, _ *config.Config, conn *db.Conn) error {
			exec := &query.Executor{Conn: conn, Logger: common.GetLogger()}
			res, err := exec.Execute(ctx, sql)
			if err != nil {
				return err
			}
			return res.Render(cmd.OutOrStdout())
		})
	},
}
