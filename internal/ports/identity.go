package ports

import "context"

// Identity responde si una dirección tiene identidad registrada on-chain.
// La implementación real consulta el identity registry; aquí solo se
// consume el booleano desde configuración persistida.
type Identity interface {
	Registered(ctx context.Context, address string) bool
}
