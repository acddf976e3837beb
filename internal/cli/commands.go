package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/spec-kit/villa-web/internal/api/dto"
	"github.com/spec-kit/villa-web/internal/apiclient"
	"github.com/spec-kit/villa-web/internal/guard"
	"github.com/spec-kit/villa-web/internal/service"
)

type credentialParams struct {
	passwordStdin bool
}

func credentialFlags(fs *pflag.FlagSet) any {
	var p credentialParams
	fs.BoolVar(&p.passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
	return &p
}

var loginCommand = command{
	summary: "Sign in and store the credential",
	usage:   "login <email> [--password-stdin]",
	flags:   credentialFlags,
	run: func(a *App, ctx context.Context, e *env, params any, args []string) error {
		if len(args) != 1 {
			return usageError("login takes exactly one email")
		}
		p := params.(*credentialParams)
		password, err := a.password(p.passwordStdin)
		if err != nil {
			return err
		}

		if err := e.sessions.Login(ctx, e.state, dto.LoginRequest{Email: args[0], Password: password}); err != nil {
			return fmt.Errorf("%s: %w", service.LoginMessage(err), err)
		}

		snap := e.state.Snapshot()
		fmt.Fprintf(a.stdout, "Signed in as %s\n", snap.Role)
		fmt.Fprintf(a.stderr, "Credential saved to %s\n", e.sessionFile)
		return nil
	},
}

var logoutCommand = command{
	summary: "Forget the stored credential",
	usage:   "logout",
	run: func(a *App, ctx context.Context, e *env, _ any, args []string) error {
		if len(args) != 0 {
			return usageError("logout takes no arguments")
		}
		if err := e.sessions.Logout(ctx, e.state); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "Signed out")
		return nil
	},
}

var whoamiCommand = command{
	summary: "Show the stored role and landing page",
	usage:   "whoami",
	run: func(a *App, _ context.Context, e *env, _ any, args []string) error {
		if len(args) != 0 {
			return usageError("whoami takes no arguments")
		}
		snap := e.state.Snapshot()
		if !snap.IsLoggedIn {
			fmt.Fprintln(a.stdout, "not signed in")
			return nil
		}
		fmt.Fprintf(a.stdout, "role: %s\nlanding: %s\n", snap.Role, guard.LandingFor(snap.Role))
		return nil
	},
}

var openCommand = command{
	summary: "Resolve where a page path leads for the stored credential",
	usage:   "open <path>",
	run: func(a *App, ctx context.Context, e *env, _ any, args []string) error {
		if len(args) != 1 {
			return usageError("open takes exactly one path")
		}
		nav := guard.NewNavigator(guard.DefaultTree(), e.state,
			guard.WithMaxRedirects(a.cfg.Navigation.MaxRedirects),
			guard.WithNavigatorLogger(a.logger),
			guard.WithNavigatorDispatcher(e.dispatcher),
		)
		out, err := nav.Navigate(ctx, args[0])
		if err != nil {
			return err
		}

		hops := append([]string{guard.NormalizePath(out.Requested)}, out.Redirects...)
		fmt.Fprintln(a.stdout, strings.Join(hops, " -> "))
		if !out.Matched {
			fmt.Fprintln(a.stderr, "no page is registered at this path")
		}
		return nil
	},
}

func villaQueryFlags(fs *pflag.FlagSet) any {
	var q dto.VillaQuery
	fs.StringVar(&q.Location, "location", "", "location area")
	fs.StringVar(&q.Category, "category", "", "category name")
	fs.StringVar(&q.MinGuest, "min-guest", "", "minimum guests")
	fs.StringVar(&q.Bedrooms, "bedrooms", "", "bedroom count")
	fs.IntVar(&q.Limit, "limit", dto.DefaultVillaLimit, "page size (1-10)")
	fs.IntVar(&q.Offset, "offset", 0, "rows to skip")
	fs.StringVar(&q.Sort, "sort", "asc", "asc or desc")
	return &q
}

var villasCommand = command{
	summary: "List villas",
	usage:   "villas [--location X] [--category X] [--min-guest N] [--bedrooms N] [--limit N] [--offset N] [--sort asc|desc]",
	flags:   villaQueryFlags,
	run: func(a *App, ctx context.Context, e *env, params any, _ []string) error {
		villas, q, err := e.villas.Browse(ctx, *params.(*dto.VillaQuery))
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tLOCATION\tGUESTS\tPRICE")
		for _, v := range villas {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.2f\n", v.ID, v.Name, v.Location.Area, v.MinGuest, v.Price)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if q.HasMore(len(villas)) {
			fmt.Fprintf(a.stderr, "more results: --offset %d\n", q.Offset+q.Limit)
		}
		return nil
	},
}

var catalogCommand = command{
	summary: "List locations, categories and amenities (admin)",
	usage:   "catalog",
	run: func(a *App, ctx context.Context, e *env, _ any, _ []string) error {
		catalog, err := e.catalog.All(ctx, e.state.Snapshot().Token)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tID\tNAME")
		for _, l := range catalog.Locations {
			fmt.Fprintf(w, "location\t%d\t%s\n", l.ID, l.Area)
		}
		for _, c := range catalog.Categories {
			fmt.Fprintf(w, "category\t%d\t%s\n", c.ID, c.Name)
		}
		for _, am := range catalog.Amenities {
			fmt.Fprintf(w, "amenity\t%d\t%s\n", am.ID, am.Name)
		}
		return w.Flush()
	},
}

type createVillaParams struct {
	form      dto.CreateVillaRequest
	thumbnail string
}

var createVillaCommand = command{
	summary: "Create a villa (admin)",
	usage:   "create-villa --name X --description X --min-guest N --bedrooms N --baths N --price N --category ID --location ID --amenity ID... --thumbnail FILE",
	flags: func(fs *pflag.FlagSet) any {
		var p createVillaParams
		fs.StringVar(&p.form.Name, "name", "", "villa name")
		fs.StringVar(&p.form.Description, "description", "", "villa description")
		fs.IntVar(&p.form.MinGuest, "min-guest", 0, "minimum guests")
		fs.IntVar(&p.form.Bedrooms, "bedrooms", 0, "bedrooms")
		fs.IntVar(&p.form.Baths, "baths", 0, "bathrooms")
		fs.Float64Var(&p.form.Price, "price", 0, "nightly price")
		fs.IntVar(&p.form.CategoryID, "category", 0, "category id")
		fs.IntVar(&p.form.LocationID, "location", 0, "location id")
		fs.IntSliceVar(&p.form.AmenityIDs, "amenity", nil, "amenity id, repeatable")
		fs.StringVar(&p.thumbnail, "thumbnail", "", "PNG or JPEG thumbnail file")
		return &p
	},
	run: func(a *App, ctx context.Context, e *env, params any, _ []string) error {
		p := params.(*createVillaParams)
		var thumbnail apiclient.File
		if p.thumbnail != "" {
			data, err := os.ReadFile(p.thumbnail)
			if err != nil {
				return fmt.Errorf("read thumbnail: %w", err)
			}
			thumbnail = apiclient.File{
				Name:        filepath.Base(p.thumbnail),
				ContentType: http.DetectContentType(data),
				Data:        data,
			}
		}

		msg, err := e.villas.Create(ctx, e.state.Snapshot().Token, p.form, thumbnail)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, msg)
		return nil
	},
}

var registerCommand = command{
	summary: "Create an account",
	usage:   "register <username> <email> [--password-stdin]",
	flags:   credentialFlags,
	run: func(a *App, ctx context.Context, e *env, params any, args []string) error {
		if len(args) != 2 {
			return usageError("register takes a username and an email")
		}
		password, err := a.password(params.(*credentialParams).passwordStdin)
		if err != nil {
			return err
		}
		if _, err := e.sessions.Register(ctx, dto.RegisterRequest{
			Username: args[0],
			Email:    args[1],
			Password: password,
		}); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Registered %s; sign in with villactl login %s\n", args[0], args[1])
		return nil
	},
}
