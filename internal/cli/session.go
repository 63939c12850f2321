package cli

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/apiclient"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/authstore"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/navigation"
)

// session is one invocation's client stack over the persisted cookie jar.
type session struct {
	client *apiclient.Client
	jar    *apiclient.FileJar
	store  *authstore.Store
	log    zerolog.Logger
}

func (o *options) openSession(errOut io.Writer) (*session, error) {
	log := o.logger(errOut)

	base, err := apiclient.New(o.server())
	if err != nil {
		return nil, err
	}
	jar, err := apiclient.NewFileJar(o.cookieFile(), base.BaseURL())
	if err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	client, err := apiclient.New(o.server(),
		apiclient.WithCookieJar(jar),
		apiclient.WithTimeout(o.timeout()),
		apiclient.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("server", client.BaseURL().String()).
		Str("cookie_file", jar.Path()).
		Msg("session opened")

	return &session{
		client: client,
		jar:    jar,
		store:  authstore.New(client, log),
		log:    log,
	}, nil
}

// save persists cookies the server set during the command.
func (s *session) save() error {
	if err := s.jar.Save(); err != nil {
		return fmt.Errorf("save cookies: %w", err)
	}
	return nil
}

func (s *session) router() (*navigation.Router, error) {
	return navigation.New(s.store, navigation.DefaultRoutes(), s.log)
}
