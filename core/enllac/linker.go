package enllac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marcmoiagese/ArbresFamiliars/db"
)

var (
	ErrNotFound         = errors.New("arbre no trobat")
	ErrSameTree         = errors.New("un arbre no es pot enllaçar amb ell mateix")
	ErrCycle            = errors.New("l'enllaç crearia un cicle d'arbres")
	ErrConnectionPerson = errors.New("la persona de connexió no pertany a l'arbre destí")
)

const (
	OpCopia       = "copia"
	OpSincronitza = "sincronitza"
	OpDesenllac   = "desenllac"
)

// Service copia, sincronitza i desfà enllaços entre arbres. Cada operació
// bloqueja els arbres implicats i s'executa dins d'una sola transacció.
type Service struct {
	db        db.DB
	locker    Locker
	publisher Publisher
	now       func() time.Time
}

// NewService crea el servei; locker i publisher nil fan servir LocalLocker i LogPublisher.
func NewService(database db.DB, locker Locker, publisher Publisher) *Service {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if publisher == nil {
		publisher = LogPublisher{}
	}
	return &Service{db: database, locker: locker, publisher: publisher, now: time.Now}
}

type opStats struct {
	creats       int
	actualitzats int
	esborrats    int
}

func (s opStats) total() int {
	return s.creats + s.actualitzats + s.esborrats
}

func (s opStats) String() string {
	return fmt.Sprintf("creats=%d actualitzats=%d esborrats=%d", s.creats, s.actualitzats, s.esborrats)
}

// CopyTreeData clona totes les persones de sourceID dins targetID i marca
// sourceID com a enllaçat a targetID.
func (s *Service) CopyTreeData(ctx context.Context, sourceID, targetID int, connectionPersonID *int) error {
	if sourceID == targetID {
		return s.finish(ctx, OpCopia, uuid.NewString(), sourceID, targetID, opStats{}, time.Now(), ErrSameTree)
	}
	return s.run(ctx, OpCopia, sourceID, targetID, func(st db.Store) (opStats, error) {
		var stats opStats
		source, err := getArbre(st, sourceID)
		if err != nil {
			return stats, err
		}
		if _, err := getArbre(st, targetID); err != nil {
			return stats, err
		}
		if err := checkCycle(st, sourceID, targetID); err != nil {
			return stats, err
		}
		connection := sql.NullInt64{}
		if connectionPersonID != nil {
			p, err := st.GetPersona(*connectionPersonID)
			if errors.Is(err, sql.ErrNoRows) || (err == nil && p.ArbreID != targetID) {
				return stats, fmt.Errorf("persona %d: %w", *connectionPersonID, ErrConnectionPerson)
			}
			if err != nil {
				return stats, err
			}
			if err := st.SetConnectionPoint(p.ID, true); err != nil {
				return stats, err
			}
			connection = sql.NullInt64{Int64: int64(p.ID), Valid: true}
		}

		persones, err := st.ListPersonesByArbre(sourceID)
		if err != nil {
			return stats, err
		}
		for _, p := range persones {
			clon := cloneOf(p, sourceID, targetID)
			if _, err := st.CreatePersona(&clon); err != nil {
				return stats, fmt.Errorf("clonant persona %d: %w", p.ID, err)
			}
			stats.creats++
		}

		source.DataIndependent = false
		source.ParentArbreID = db.NullInt(targetID)
		source.ConnectionPersonaID = connection
		if err := st.UpdateArbreEnllac(source); err != nil {
			return stats, err
		}
		return stats, nil
	})
}

// SyncUpdates refresca els clons de sourceID dins targetID. Els clons es
// relacionen per source_persona_id i, si no en tenen, per nom, nom del pare i
// nom de l'avi. Les persones sense clon es clonen de nou; els clons sense
// persona d'origen es mantenen.
func (s *Service) SyncUpdates(ctx context.Context, sourceID, targetID int) error {
	if sourceID == targetID {
		return s.finish(ctx, OpSincronitza, uuid.NewString(), sourceID, targetID, opStats{}, time.Now(), ErrSameTree)
	}
	return s.run(ctx, OpSincronitza, sourceID, targetID, func(st db.Store) (opStats, error) {
		var stats opStats
		if _, err := getArbre(st, sourceID); err != nil {
			return stats, err
		}
		if _, err := getArbre(st, targetID); err != nil {
			return stats, err
		}
		clons, err := st.ListClons(targetID, sourceID)
		if err != nil {
			return stats, err
		}
		persones, err := st.ListPersonesByArbre(sourceID)
		if err != nil {
			return stats, err
		}

		m := newCloneMatcher(clons)
		for _, p := range persones {
			clon := m.match(p)
			if clon == nil {
				nou := cloneOf(p, sourceID, targetID)
				if _, err := st.CreatePersona(&nou); err != nil {
					return stats, fmt.Errorf("clonant persona %d: %w", p.ID, err)
				}
				stats.creats++
				continue
			}
			copyDescriptive(clon, p)
			if err := st.UpdatePersona(clon); err != nil {
				return stats, fmt.Errorf("actualitzant clon %d: %w", clon.ID, err)
			}
			stats.actualitzats++
		}
		return stats, nil
	})
}

// UnlinkTree esborra tots els clons que treeID ha deixat en qualsevol arbre
// i torna l'arbre a l'estat independent.
func (s *Service) UnlinkTree(ctx context.Context, treeID int) error {
	return s.run(ctx, OpDesenllac, treeID, 0, func(st db.Store) (opStats, error) {
		var stats opStats
		a, err := getArbre(st, treeID)
		if err != nil {
			return stats, err
		}
		n, err := st.DeleteClonsByOrigen(treeID)
		if err != nil {
			return stats, err
		}
		stats.esborrats = int(n)

		previous := a.ConnectionPersonaID
		a.DataIndependent = true
		a.ParentArbreID = sql.NullInt64{}
		a.ConnectionPersonaID = sql.NullInt64{}
		if err := st.UpdateArbreEnllac(a); err != nil {
			return stats, err
		}
		if previous.Valid {
			// El punt de connexió queda marcat mentre algun altre arbre hi estigui enllaçat.
			restants, err := st.CountArbresByConnectionPersona(int(previous.Int64))
			if err != nil {
				return stats, err
			}
			if restants == 0 {
				if err := st.SetConnectionPoint(int(previous.Int64), false); err != nil && !errors.Is(err, sql.ErrNoRows) {
					return stats, err
				}
			}
		}
		return stats, nil
	})
}

func (s *Service) run(ctx context.Context, op string, arbreID, destiID int, fn func(db.Store) (opStats, error)) error {
	start := time.Now()
	opID := uuid.NewString()

	ids := []int{arbreID}
	if destiID != 0 {
		ids = append(ids, destiID)
	}
	unlock, err := s.locker.Lock(ctx, ids...)
	if err != nil {
		return s.finish(ctx, op, opID, arbreID, destiID, opStats{}, start, fmt.Errorf("no s'han pogut bloquejar els arbres %v: %w", ids, err))
	}
	defer unlock()

	var stats opStats
	err = s.db.WithTx(ctx, func(st db.Store) error {
		var ferr error
		stats, ferr = fn(st)
		if ferr != nil {
			return ferr
		}
		_, ferr = st.InsertCanvi(&db.Canvi{
			OpID:         opID,
			ArbreID:      arbreID,
			DestiArbreID: db.NullInt(destiID),
			Accio:        op,
			Resultat:     "ok",
			Detall:       stats.String(),
		})
		return ferr
	})
	return s.finish(ctx, op, opID, arbreID, destiID, stats, start, err)
}

// finish registra mètriques, log, auditoria de l'error i l'esdeveniment.
func (s *Service) finish(ctx context.Context, op, opID string, arbreID, destiID int, stats opStats, start time.Time, err error) error {
	duradaSegons.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		operacionsTotal.WithLabelValues(op, "error").Inc()
		logErrorf("%s op=%s arbre=%d desti=%d: %v", op, opID, arbreID, destiID, err)
		if arbreID > 0 {
			if _, aerr := s.db.InsertCanvi(&db.Canvi{
				OpID:         opID,
				ArbreID:      arbreID,
				DestiArbreID: db.NullInt(destiID),
				Accio:        op,
				Resultat:     "error",
				Detall:       err.Error(),
			}); aerr != nil {
				logErrorf("no s'ha pogut registrar l'error de %s: %v", opID, aerr)
			}
		}
		return err
	}

	operacionsTotal.WithLabelValues(op, "ok").Inc()
	clonsTotal.WithLabelValues(op).Add(float64(stats.total()))
	logInfof("%s op=%s arbre=%d desti=%d %s", op, opID, arbreID, destiID, stats)
	ev := Event{Op: op, OpID: opID, ArbreID: arbreID, DestiID: destiID, Persones: stats.total(), Timestamp: s.now().UTC()}
	if perr := s.publisher.Publish(ctx, ev); perr != nil {
		logErrorf("no s'ha pogut publicar %s: %v", opID, perr)
	}
	return nil
}

func getArbre(st db.Store, id int) (*db.Arbre, error) {
	a, err := st.GetArbre(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("arbre %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// checkCycle recorre la cadena de pares de targetID i falla si hi troba sourceID.
func checkCycle(st db.Store, sourceID, targetID int) error {
	seen := map[int]bool{}
	cur := targetID
	for !seen[cur] {
		seen[cur] = true
		a, err := st.GetArbre(cur)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if !a.ParentArbreID.Valid {
			return nil
		}
		cur = int(a.ParentArbreID.Int64)
		if cur == sourceID {
			return fmt.Errorf("arbre %d ja penja de %d: %w", targetID, sourceID, ErrCycle)
		}
	}
	return nil
}

func cloneOf(p db.Persona, sourceID, targetID int) db.Persona {
	c := db.Persona{
		ArbreID:         targetID,
		IsOriginal:      false,
		OriginalArbreID: db.NullInt(sourceID),
		SourcePersonaID: db.NullInt(p.ID),
	}
	copyDescriptive(&c, p)
	return c
}

// copyDescriptive copia els camps descriptius; no toca id, arbre, pares ni procedència.
func copyDescriptive(dst *db.Persona, src db.Persona) {
	dst.Nom = src.Nom
	dst.NomPare = src.NomPare
	dst.NomAvi = src.NomAvi
	dst.Cognom = src.Cognom
	dst.Sexe = src.Sexe
	dst.DataNaixement = src.DataNaixement
	dst.DataDefuncio = src.DataDefuncio
	dst.Ciutat = src.Ciutat
	dst.Foto = src.Foto
	dst.Notes = src.Notes
	dst.Motiu = src.Motiu
	dst.OficiID = src.OficiID
	dst.PaisID = src.PaisID
	dst.IsConnectionPoint = src.IsConnectionPoint
}

type nameKey struct {
	nom, pare, avi string
}

func keyOf(p db.Persona) nameKey {
	return nameKey{p.Nom, p.NomPare, p.NomAvi}
}

// cloneMatcher relaciona persones d'origen amb els clons existents. Cada clon
// només es pot fer servir una vegada; els clons antics amb el mateix nom es
// reparteixen en ordre.
type cloneMatcher struct {
	bySource map[int]*db.Persona
	byName   map[nameKey][]*db.Persona
	used     map[int]bool
}

func newCloneMatcher(clons []db.Persona) *cloneMatcher {
	m := &cloneMatcher{
		bySource: map[int]*db.Persona{},
		byName:   map[nameKey][]*db.Persona{},
		used:     map[int]bool{},
	}
	for i := range clons {
		c := &clons[i]
		if c.SourcePersonaID.Valid {
			if _, ok := m.bySource[int(c.SourcePersonaID.Int64)]; !ok {
				m.bySource[int(c.SourcePersonaID.Int64)] = c
			}
			continue
		}
		m.byName[keyOf(*c)] = append(m.byName[keyOf(*c)], c)
	}
	return m
}

func (m *cloneMatcher) match(p db.Persona) *db.Persona {
	if c, ok := m.bySource[p.ID]; ok && !m.used[c.ID] {
		m.used[c.ID] = true
		return c
	}
	key := keyOf(p)
	for len(m.byName[key]) > 0 {
		c := m.byName[key][0]
		m.byName[key] = m.byName[key][1:]
		if !m.used[c.ID] {
			m.used[c.ID] = true
			return c
		}
	}
	return nil
}
